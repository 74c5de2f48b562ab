/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"github.com/spf13/cobra"
)

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <system> <code>",
		Short: "Resolve display text for a coded value",
		Long: `Resolve the display text of a code from the bundled terminology and, when a
terminology server is configured, from its CodeSystem/$lookup operation.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			display, found, err := a.service.Lookup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return opts.printer(cmd.OutOrStdout()).Lookup(args[0], args[1], display, found)
		},
	}
}
