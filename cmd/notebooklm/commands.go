package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open a headed browser to establish login state",
		Long: `Opens a visible browser window on the application entry point and waits
for you to log in. The persistent browser profile keeps the login across
runs, so other commands can then operate headless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flagHeaded = true

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Println("Login state established; session tokens acquired.")
			fmt.Printf("Build label: %s\n", a.sessions.Credentials().BuildLabel)
			return nil
		},
	}
}

func newGenerateCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <video-url>",
		Short: "Generate an infographic for a video and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			url, err := a.client.GenerateInfographic(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(url)
			return nil
		},
	}
}

func newSummarizeCmd(ctx context.Context) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "summarize <video-url>",
		Short: "Generate a text summary for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var text string
			if prompt != "" {
				notebookID, sourceID, prepErr := a.client.PrepareNotebook(ctx, args[0])
				if prepErr != nil {
					return prepErr
				}
				text, err = a.client.Summarize(ctx, notebookID, sourceID, prompt)
			} else {
				text, err = a.client.GenerateSummary(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if text == "" {
				return fmt.Errorf("generation produced no usable text")
			}

			fmt.Println(text)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "custom generation prompt")
	return cmd
}

func newPollCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "poll [notebook-id]",
		Short: "Poll an existing notebook for a generated artifact",
		Long: `Polls an existing notebook until a generated artifact URL appears,
skipping creation entirely. Without an argument, the most recently created
notebook is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var notebookID string
			if len(args) > 0 {
				notebookID = args[0]
			} else {
				notebookID = a.client.LastNotebookID()
				if notebookID == "" {
					return fmt.Errorf("no notebook id given and no previous run recorded")
				}
			}

			url, err := a.client.PollArtifacts(ctx, notebookID)
			if err != nil {
				return err
			}

			fmt.Println(url)
			return nil
		},
	}
}

func newDownloadCmd(ctx context.Context) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download an artifact through the authenticated session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.client.DownloadArtifact(ctx, args[0])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Printf("Wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newDeleteCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <notebook-id>",
		Short: "Delete a notebook on the remote side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.DeleteNotebook(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println("Notebook deleted.")
			return nil
		},
	}
}
