/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package output renders verification results for the terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-jose/go-jose/v3/json"

	"github.com/trustbloc/shc-go/healthcard"
	"github.com/trustbloc/shc-go/trust"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

const dateLayout = "January 2, 2006"

// Options control rendering.
type Options struct {
	JSON    bool
	Verbose bool
}

// Printer writes results to w.
type Printer struct {
	w    io.Writer
	opts Options
}

// New creates a printer.
func New(w io.Writer, opts Options) *Printer {
	return &Printer{w: w, opts: opts}
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(p.w, string(b))

	return err
}

// Result prints a verification result.
func (p *Printer) Result(r healthcard.Result) error {
	if p.opts.JSON {
		return p.JSON(r)
	}

	headerColor.Fprintln(p.w, "SMART Health Card")
	headerColor.Fprintln(p.w, strings.Repeat("─", 50))

	p.label("Signature")

	switch r.Verdict {
	case healthcard.VerdictValid:
		successColor.Fprintln(p.w, "✓ valid")
	case healthcard.VerdictInvalid:
		errorColor.Fprintln(p.w, "✗ invalid")
	default:
		dimColor.Fprintln(p.w, r.Verdict.String())
	}

	if r.Issuer != "" {
		p.label("Issuer")
		fmt.Fprintf(p.w, "%s (%s)\n", r.IssuerName, r.Issuer)

		p.label("Trusted")

		if r.IssuerTrusted {
			successColor.Fprintln(p.w, "✓ listed in issuer directory")
		} else {
			warnColor.Fprintln(p.w, "⚠ not listed in issuer directory")
		}
	}

	if r.IssuedAt != nil {
		p.label("Issued")
		fmt.Fprintln(p.w, r.IssuedAt.Format(dateLayout))
	}

	if r.ExpiresAt != nil {
		p.label("Expires")
		p.expiry(*r.ExpiresAt, r.Expired)
	}

	if r.ContentSummary != "" {
		p.label("Contains")
		fmt.Fprintln(p.w, r.ContentSummary)
	}

	if len(r.Entries) > 0 {
		fmt.Fprintln(p.w)
		headerColor.Fprintf(p.w, "Entries (%d)\n", len(r.Entries))

		for i, e := range r.Entries {
			dimColor.Fprintf(p.w, "  [%d] ", i+1)
			labelColor.Fprintf(p.w, "%s: ", e.ResourceType)
			fmt.Fprintln(p.w, e.Title)

			if e.Subtitle != "" {
				dimColor.Fprintf(p.w, "      %s\n", e.Subtitle)
			}

			if e.Detail != "" {
				fmt.Fprintf(p.w, "      %s\n", e.Detail)
			}
		}
	}

	p.messages(r.Messages)

	return nil
}

func (p *Printer) expiry(exp time.Time, expired bool) {
	if expired {
		errorColor.Fprintf(p.w, "%s (expired)\n", exp.Format(dateLayout))

		return
	}

	fmt.Fprintln(p.w, exp.Format(dateLayout))
}

func (p *Printer) messages(msgs []healthcard.Message) {
	shown := msgs
	if !p.opts.Verbose {
		shown = nil

		for _, m := range msgs {
			if m.Severity == healthcard.SeverityError {
				shown = append(shown, m)
			}
		}
	}

	if len(shown) == 0 {
		return
	}

	fmt.Fprintln(p.w)
	headerColor.Fprintln(p.w, "Messages")

	for _, m := range shown {
		if m.Severity == healthcard.SeverityError {
			errorColor.Fprintf(p.w, "  ✗ %s\n", m.Text)
		} else {
			dimColor.Fprintf(p.w, "  • %s\n", m.Text)
		}
	}
}

// Issuers prints directory records.
func (p *Printer) Issuers(issuers []trust.Issuer) error {
	if p.opts.JSON {
		return p.JSON(issuers)
	}

	headerColor.Fprintf(p.w, "Trusted issuers (%d)\n", len(issuers))

	for _, iss := range issuers {
		labelColor.Fprintf(p.w, "  %s\n", iss.Name)
		fmt.Fprintf(p.w, "    %s\n", iss.ISS)

		if iss.CanonicalISS != "" {
			dimColor.Fprintf(p.w, "    canonical: %s\n", iss.CanonicalISS)
		}

		if p.opts.Verbose && iss.Website != "" {
			dimColor.Fprintf(p.w, "    website: %s\n", iss.Website)
		}
	}

	return nil
}

// Lookup prints a terminology lookup.
func (p *Printer) Lookup(system, code, display string, found bool) error {
	if p.opts.JSON {
		return p.JSON(map[string]interface{}{
			"system":  system,
			"code":    code,
			"display": display,
			"found":   found,
		})
	}

	labelColor.Fprintf(p.w, "%s|%s: ", system, code)

	if !found {
		warnColor.Fprintln(p.w, "no display text")

		return nil
	}

	fmt.Fprintln(p.w, display)

	return nil
}

func (p *Printer) label(name string) {
	labelColor.Fprintf(p.w, "%-10s ", name+":")
}
