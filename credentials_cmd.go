package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"vodforge/credentials"

	"github.com/spf13/cobra"
)

func newCredentialsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored storage-backend credentials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY name=value...",
		Short: "Store access info under KEY, replacing what was there",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			return a.withCredentials(func(s *credentials.Store) error {
				if err := s.Put(args[0], creds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d values under %s\n", len(creds), args[0])
				return nil
			})
		},
	})

	var reveal bool
	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the access info stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCredentials(func(s *credentials.Store) error {
				creds, err := s.Get(args[0])
				if err != nil {
					return err
				}
				if !reveal {
					creds = credentials.Redacted(creds)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(creds)
			})
		},
	}
	get.Flags().BoolVar(&reveal, "reveal", false, "Print secrets in clear")
	cmd.AddCommand(get)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete KEY",
		Short: "Remove the access info stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCredentials(func(s *credentials.Store) error {
				return s.Delete(args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCredentials(func(s *credentials.Store) error {
				keys, err := s.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	})
	return cmd
}

func (a *app) withCredentials(fn func(*credentials.Store) error) error {
	s, err := a.openCredentials()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// parsePairs turns name=value arguments into a map.
func parsePairs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		out[name] = value
	}
	return out, nil
}
