/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustbloc/shc-go/healthcard"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var claimedIssuer string

	cmd := &cobra.Command{
		Use:   "verify [file|jws]",
		Short: "Decode and verify a SMART Health Card",
		Long: `Decode a SMART Health Card JWS, verify its signature against the issuer's key set
and print the card content. The input is a file path, the JWS itself, or stdin when omitted.

With --issuer the card must have been issued by the given issuer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}

			compact, err := readInput(arg, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result := a.service.Verify(cmd.Context(), healthcard.Input{JWS: compact, ClaimedIssuer: claimedIssuer})

			if err = opts.printer(cmd.OutOrStdout()).Result(result); err != nil {
				return err
			}

			if result.Verdict != healthcard.VerdictValid {
				return fmt.Errorf("card not verified: %s", result.State)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&claimedIssuer, "issuer", "", "Issuer the card is expected to come from")

	return cmd
}
