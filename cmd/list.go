// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/LeeDigitalWorks/ossmpu/pkg/multipart"
	"github.com/LeeDigitalWorks/ossmpu/pkg/ossapi/keycodec"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listUploadsCmd = &cobra.Command{
	Use:   "list-uploads <bucket>",
	Short: "List open multipart transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  runListUploads,
}

var listPartsCmd = &cobra.Command{
	Use:   "list-parts <bucket> <object> <upload-id>",
	Short: "List the parts uploaded to a transaction",
	Args:  cobra.ExactArgs(3),
	RunE:  runListParts,
}

func init() {
	rootCmd.AddCommand(listUploadsCmd)
	rootCmd.AddCommand(listPartsCmd)

	listUploadsCmd.Flags().String("prefix", "", "Only transactions whose key starts with this prefix")
	listUploadsCmd.Flags().String("delimiter", "", "Group keys by this delimiter")
	listUploadsCmd.Flags().String("key-marker", "", "Start after this key")
	listUploadsCmd.Flags().String("upload-id-marker", "", "Start after this upload id (with --key-marker)")
	listUploadsCmd.Flags().Int("limit", 0, "Page size (0 = service default)")
	listUploadsCmd.Flags().Bool("url-encoding", false, "Ask the service to URL-encode keys in the response")
	listUploadsCmd.Flags().Bool("all", false, "Follow markers until every transaction is listed")

	listPartsCmd.Flags().String("marker", "", "Start after this part number")
	listPartsCmd.Flags().Int("limit", 0, "Page size (0 = service default)")
	listPartsCmd.Flags().Bool("url-encoding", false, "Ask the service to URL-encode keys in the response")
	listPartsCmd.Flags().Bool("all", false, "Follow markers until every part is listed")
}

func encodingFlag(cmd *cobra.Command) keycodec.Encoding {
	if on, _ := cmd.Flags().GetBool("url-encoding"); on {
		return keycodec.URL
	}
	return keycodec.None
}

func runListUploads(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := &multipart.ListTransactionsOptions{Encoding: encodingFlag(cmd)}
	opts.Prefix, _ = cmd.Flags().GetString("prefix")
	opts.Delimiter, _ = cmd.Flags().GetString("delimiter")
	opts.KeyMarker, _ = cmd.Flags().GetString("key-marker")
	opts.IDMarker, _ = cmd.Flags().GetString("upload-id-marker")
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tUPLOAD ID\tINITIATED")
	row := func(t multipart.Transaction) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Object, t.ID, humanize.Time(t.CreationTime))
	}

	if all {
		for t, err := range client.AllTransactions(ctx, args[0], opts) {
			if err != nil {
				w.Flush()
				return err
			}
			row(t)
		}
		return w.Flush()
	}

	txns, more, err := client.ListTransactions(ctx, args[0], opts)
	if err != nil {
		return err
	}
	for _, t := range txns {
		row(t)
	}
	for _, prefix := range more.CommonPrefixes {
		fmt.Fprintf(w, "%s\t(prefix)\t\n", prefix)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !more.IsExhausted() {
		next := more.NextTransactionsOptions(*opts)
		fmt.Fprintf(cmd.OutOrStdout(), "\nMore results: --key-marker %q --upload-id-marker %q\n", next.KeyMarker, next.IDMarker)
	}
	return nil
}

func runListParts(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := &multipart.ListPartsOptions{Encoding: encodingFlag(cmd)}
	opts.Marker, _ = cmd.Flags().GetString("marker")
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PART\tETAG\tSIZE\tLAST MODIFIED")
	row := func(p multipart.Part) {
		size, modified := "-", "-"
		if p.Size != nil {
			size = humanize.IBytes(uint64(*p.Size))
		}
		if p.LastModified != nil {
			modified = humanize.Time(*p.LastModified)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Number, p.ETag, size, modified)
	}

	bucket, object, id := args[0], args[1], args[2]
	if all {
		for p, err := range client.AllParts(ctx, bucket, object, id, opts) {
			if err != nil {
				w.Flush()
				return err
			}
			row(p)
		}
		return w.Flush()
	}

	parts, more, err := client.ListParts(ctx, bucket, object, id, opts)
	if err != nil {
		return err
	}
	for _, p := range parts {
		row(p)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !more.IsExhausted() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nMore results: --marker %q\n", more.NextPartsOptions(*opts).Marker)
	}
	return nil
}
