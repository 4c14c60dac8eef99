// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/ossmpu/pkg/config"
	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var uploadPartCmd = &cobra.Command{
	Use:   "upload-part <bucket> <object> <upload-id> <part-number> <file|->",
	Short: "Upload one part of a transaction",
	Long: `Upload one part of a transaction from a file or standard input.

With --offset and --size only that slice of the file is sent.

Example:
  ossmpu upload-part my-bucket big.bin 0004B9B2... 2 big.bin --offset 8MiB --size 8MiB`,
	Args: cobra.ExactArgs(5),
	RunE: runUploadPart,
}

var copyPartCmd = &cobra.Command{
	Use:   "copy-part <bucket> <object> <upload-id> <part-number> <source-key>",
	Short: "Fill one part with a server-side copy",
	Long: `Fill one part of a transaction with (a range of) an existing object.

Example:
  ossmpu copy-part my-bucket big.bin 0004B9B2... 1 src.bin --range 0-8388607 --if-match '"abc"'`,
	Args: cobra.ExactArgs(5),
	RunE: runCopyPart,
}

func init() {
	rootCmd.AddCommand(uploadPartCmd)
	rootCmd.AddCommand(copyPartCmd)

	uploadPartCmd.Flags().String("offset", "0", "Byte offset into the file (e.g. 8MiB)")
	uploadPartCmd.Flags().String("size", "", "Bytes to send (default: to the end of the file)")
	uploadPartCmd.Flags().String("md5", "", "Base64 Content-MD5 of the part")

	copyPartCmd.Flags().String("source-bucket", "", "Bucket of the source object (default: destination bucket)")
	copyPartCmd.Flags().String("range", "", "Inclusive byte range START-END of the source")
	copyPartCmd.Flags().String("if-match", "", "Copy only if the source ETag matches")
	copyPartCmd.Flags().String("if-none-match", "", "Copy only if the source ETag differs")
	copyPartCmd.Flags().String("if-modified-since", "", "Copy only if modified since (RFC 3339)")
	copyPartCmd.Flags().String("if-unmodified-since", "", "Copy only if unmodified since (RFC 3339)")
}

func parsePartNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("part number %q: %w", s, err)
	}
	return n, nil
}

func runUploadPart(cmd *cobra.Command, args []string) error {
	number, err := parsePartNumber(args[3])
	if err != nil {
		return err
	}
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var offset, size int64
	if s, _ := cmd.Flags().GetString("offset"); s != "" {
		if offset, err = config.ParseSize(s); err != nil {
			return err
		}
	}
	if s, _ := cmd.Flags().GetString("size"); s != "" {
		if size, err = config.ParseSize(s); err != nil {
			return err
		}
	}

	var body io.Reader
	if args[4] == "-" {
		if offset > 0 {
			return fmt.Errorf("--offset cannot be used with standard input")
		}
		body = os.Stdin
		if size > 0 {
			body = io.LimitReader(os.Stdin, size)
		}
	} else {
		f, err := os.Open(args[4])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		if offset > info.Size() {
			return fmt.Errorf("offset %s beyond end of %s", humanize.IBytes(uint64(offset)), args[4])
		}
		if size == 0 || offset+size > info.Size() {
			size = info.Size() - offset
		}
		body = io.NewSectionReader(f, offset, size)
	}

	md5, _ := cmd.Flags().GetString("md5")
	p, err := client.UploadPart(ctx, args[0], args[1], args[2], number,
		multipart.ReaderProducer(body), &multipart.UploadPartOptions{Size: size, ContentMD5: md5})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d:%s\n", p.Number, p.ETag)
	return nil
}

func runCopyPart(cmd *cobra.Command, args []string) error {
	number, err := parsePartNumber(args[3])
	if err != nil {
		return err
	}

	opts := &multipart.CopyPartOptions{}
	opts.SourceBucket, _ = cmd.Flags().GetString("source-bucket")
	r, _ := cmd.Flags().GetString("range")
	if opts.Range, err = parseRange(r); err != nil {
		return err
	}
	opts.Conditions.IfMatchETag, _ = cmd.Flags().GetString("if-match")
	opts.Conditions.IfNoneMatchETag, _ = cmd.Flags().GetString("if-none-match")
	for flag, dst := range map[string]*time.Time{
		"if-modified-since":   &opts.Conditions.IfModifiedSince,
		"if-unmodified-since": &opts.Conditions.IfUnmodifiedSince,
	} {
		v, _ := cmd.Flags().GetString(flag)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		*dst = t
	}

	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	p, err := client.UploadPartFromObject(ctx, args[0], args[1], args[2], number, args[4], opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d:%s\n", p.Number, p.ETag)
	return nil
}
