// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"

	"github.com/spf13/cobra"
)

var beginCmd = &cobra.Command{
	Use:   "begin <bucket> <object>",
	Short: "Open a multipart transaction",
	Long: `Open a multipart transaction and print its id.

Example:
  ossmpu begin my-bucket videos/big.mp4 --meta year=2015 --content-type video/mp4`,
	Args: cobra.ExactArgs(2),
	RunE: runBegin,
}

var commitCmd = &cobra.Command{
	Use:   "commit <bucket> <object> <upload-id>",
	Short: "Commit a multipart transaction",
	Long: `Assemble the object from its uploaded parts.

Parts are given as NUMBER:ETAG pairs in the order they should be assembled.
Without --part every part the service lists for the transaction is committed.

Example:
  ossmpu commit my-bucket big.bin 0004B9B2... --part '1:"etag-1"' --part '2:"etag-2"'`,
	Args: cobra.ExactArgs(3),
	RunE: runCommit,
}

var abortCmd = &cobra.Command{
	Use:   "abort <bucket> <object> <upload-id>",
	Short: "Abort a multipart transaction",
	Args:  cobra.ExactArgs(3),
	RunE:  runAbort,
}

func init() {
	rootCmd.AddCommand(beginCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(abortCmd)

	beginCmd.Flags().StringToString("meta", nil, "User metadata as key=value, sent as x-oss-meta-<key>")
	beginCmd.Flags().String("content-type", "", "Content-Type of the final object")
	beginCmd.Flags().String("cache-control", "", "Cache-Control of the final object")
	beginCmd.Flags().String("content-disposition", "", "Content-Disposition of the final object")
	beginCmd.Flags().String("content-encoding", "", "Content-Encoding of the final object")
	beginCmd.Flags().Duration("expires-in", 0, "Set Expires to now plus this duration")

	commitCmd.Flags().StringArray("part", nil, "Part as NUMBER:ETAG, repeatable, in commit order")
}

func runBegin(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := &multipart.BeginOptions{}
	opts.Metas, _ = cmd.Flags().GetStringToString("meta")
	opts.ContentType, _ = cmd.Flags().GetString("content-type")
	opts.CacheControl, _ = cmd.Flags().GetString("cache-control")
	opts.ContentDisposition, _ = cmd.Flags().GetString("content-disposition")
	opts.ContentEncoding, _ = cmd.Flags().GetString("content-encoding")
	if d, _ := cmd.Flags().GetDuration("expires-in"); d > 0 {
		opts.Expires = time.Now().Add(d)
	}

	id, err := client.Begin(ctx, args[0], args[1], opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	bucket, object, id := args[0], args[1], args[2]

	partArgs, _ := cmd.Flags().GetStringArray("part")
	var parts []multipart.Part
	for _, arg := range partArgs {
		p, err := parsePartArg(arg)
		if err != nil {
			return err
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		for p, err := range client.AllParts(ctx, bucket, object, id, nil) {
			if err != nil {
				return err
			}
			parts = append(parts, multipart.Part{Number: p.Number, ETag: p.ETag})
		}
	}

	res, err := client.CommitTransaction(ctx, bucket, object, id, parts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Committed %d parts\n", len(parts))
	if res.ETag != "" {
		fmt.Fprintf(out, "  ETag:     %s\n", strings.Trim(res.ETag, `"`))
	}
	if res.Location != "" {
		fmt.Fprintf(out, "  Location: %s\n", res.Location)
	}
	return nil
}

func runAbort(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := client.AbortTransaction(ctx, args[0], args[1], args[2]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Aborted %s\n", args[2])
	return nil
}
