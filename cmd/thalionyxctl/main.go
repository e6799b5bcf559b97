package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotisk95/Thalionyx/pkg/client"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "thalionyxctl",
		Short: "CLI client for the Thalionyx fragment service REST API",
	}
)

func api() *client.Client { return client.New(apiFlag) }

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Fragment service base URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
