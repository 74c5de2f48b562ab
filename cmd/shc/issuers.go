/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trustbloc/shc-go/trust"
)

func newIssuersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "issuers [iss]",
		Short: "List trusted issuers or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p := opts.printer(cmd.OutOrStdout())

			if len(args) == 0 {
				return p.Issuers(a.service.Issuers())
			}

			issuer, ok := a.service.Directory().Lookup(args[0])
			if !ok {
				return fmt.Errorf("issuer not trusted: %s", args[0])
			}

			return p.Issuers([]trust.Issuer{issuer})
		},
	}
}
