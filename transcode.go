package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"vodforge/job"

	"github.com/spf13/cobra"
)

func newTranscodeCommand(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "transcode FILE",
		Short: "Convert a local video file and upload the HLS output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				base := filepath.Base(args[0])
				id = strings.TrimSuffix(base, filepath.Ext(base))
			}
			svc, err := a.buildServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			result, runErr := svc.orch.Run(cmd.Context(), id, &job.LocalSource{Path: args[0]})
			if result != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return errors.Join(runErr, err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Object id (defaults to the file name without extension)")
	return cmd
}
