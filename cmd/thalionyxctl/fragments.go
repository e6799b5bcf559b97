package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	fragmentsCmd := &cobra.Command{Use: "fragments", Short: "Fragment operations"}

	// record
	var file string
	var durationMs int64
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Record a fragment from a payload file",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			frag, err := api().CreateFragment(cmd.Context(), payload, durationMs)
			if err != nil {
				return err
			}
			return printJSON(frag)
		},
	}
	recordCmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (required)")
	recordCmd.Flags().Int64VarP(&durationMs, "duration-ms", "d", 0, "Recording duration in milliseconds (required)")
	_ = recordCmd.MarkFlagRequired("file")
	_ = recordCmd.MarkFlagRequired("duration-ms")
	fragmentsCmd.AddCommand(recordCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List fragments in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			frags, err := api().ListFragments(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(frags)
		},
	}
	fragmentsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get FRAGMENT_ID",
		Short: "Get a fragment by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frag, err := api().GetFragment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(frag)
		},
	}
	fragmentsCmd.AddCommand(getCmd)

	// rm
	rmCmd := &cobra.Command{
		Use:   "rm FRAGMENT_ID",
		Short: "Delete a fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return api().DeleteFragment(cmd.Context(), args[0])
		},
	}
	fragmentsCmd.AddCommand(rmCmd)

	// tag
	var emotion string
	var intensity int
	var confidence float64
	tagCmd := &cobra.Command{
		Use:   "tag FRAGMENT_ID",
		Short: "Add an emotion tag to a fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frag, err := api().AddTag(cmd.Context(), args[0], emotion, intensity, confidence)
			if err != nil {
				return err
			}
			return printJSON(frag)
		},
	}
	tagCmd.Flags().StringVarP(&emotion, "emotion", "e", "", "Emotion name (required)")
	tagCmd.Flags().IntVarP(&intensity, "intensity", "i", 5, "Intensity 1-10")
	tagCmd.Flags().Float64VarP(&confidence, "confidence", "c", 1.0, "Confidence 0-1")
	_ = tagCmd.MarkFlagRequired("emotion")
	fragmentsCmd.AddCommand(tagCmd)

	// rate
	var helpful bool
	var resonance int
	var ratingContext string
	rateCmd := &cobra.Command{
		Use:   "rate FRAGMENT_ID",
		Short: "Rate how a fragment landed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ctxPtr *string
			if ratingContext != "" {
				ctxPtr = &ratingContext
			}
			frag, err := api().AddRating(cmd.Context(), args[0], helpful, resonance, ctxPtr)
			if err != nil {
				return err
			}
			return printJSON(frag)
		},
	}
	rateCmd.Flags().BoolVarP(&helpful, "helpful", "H", false, "Whether the fragment was helpful")
	rateCmd.Flags().IntVarP(&resonance, "resonance", "r", 3, "Resonance 1-5")
	rateCmd.Flags().StringVarP(&ratingContext, "context", "c", "", "Optional context note")
	fragmentsCmd.AddCommand(rateCmd)

	// select
	selectCmd := &cobra.Command{
		Use:   "select FRAGMENT_ID",
		Short: "Mark a fragment as the current selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frag, err := api().SelectFragment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(frag)
		},
	}
	fragmentsCmd.AddCommand(selectCmd)

	rootCmd.AddCommand(fragmentsCmd)
}
