// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/config"
	"github.com/LeeDigitalWorks/ossmpu/pkg/debug"
	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/uploader"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <bucket> <object> <file>",
	Short: "Upload a whole file in parallel parts",
	Long: `Upload a file as one object: open a transaction, send the parts
concurrently and commit them.

If the upload fails the transaction is left open (unless --abort_on_error)
and its id is printed; pass it to --resume to finish the upload later.

Examples:
  ossmpu upload my-bucket backups/db.tar db.tar --part_size 64MiB --concurrency 8
  ossmpu upload my-bucket backups/db.tar db.tar --resume 0004B9B2...`,
	Args: cobra.ExactArgs(3),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	f := uploadCmd.Flags()
	f.String(config.KeyPartSize, "8MiB", "Size of each part")
	f.Int(config.KeyConcurrency, 4, "Parts uploaded at once")
	f.Bool(config.KeyAbortOnError, false, "Abort the transaction when the upload fails")
	f.String("resume", "", "Finish an existing transaction instead of opening a new one")
	f.String("content-type", "", "Content-Type of the object")
	f.String("metrics_addr", "", "Serve /metrics and /debug/ on this address while uploading")
}

func runUpload(cmd *cobra.Command, args []string) error {
	bucket, object, path := args[0], args[1], args[2]

	client, settings, err := newClient(cmd)
	if err != nil {
		return err
	}
	u, err := uploader.New(client, uploader.Config{
		PartSize:     settings.PartSize,
		Concurrency:  settings.Concurrency,
		AbortOnError: settings.AbortOnError,
	})
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if addr, _ := cmd.Flags().GetString("metrics_addr"); addr != "" {
		wait, err := debug.Serve(ctx, addr)
		if err != nil {
			return err
		}
		defer wait()
		defer cancel()
	}
	defer debug.Begin()()

	start := time.Now()
	var res *uploader.Result
	if id, _ := cmd.Flags().GetString("resume"); id != "" {
		res, err = u.Resume(ctx, bucket, object, id, f, info.Size())
	} else {
		opts := &multipart.BeginOptions{}
		opts.ContentType, _ = cmd.Flags().GetString("content-type")
		res, err = u.Upload(ctx, bucket, object, f, info.Size(), opts)
	}
	if err != nil {
		if res != nil && res.ID != "" && !settings.AbortOnError {
			fmt.Fprintf(cmd.ErrOrStderr(), "upload incomplete, resume with: --resume %s\n", res.ID)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Uploaded %s to %s/%s in %s\n",
		humanize.IBytes(uint64(info.Size())), bucket, object, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "  upload id: %s\n", res.ID)
	fmt.Fprintf(out, "  parts:     %d (%d sent, %d reused)\n", res.Parts, res.Uploaded, res.Skipped)
	fmt.Fprintf(out, "  etag:      %s\n", res.Commit.ETag)
	return nil
}
