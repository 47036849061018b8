package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/storage/snapshot"
)

var (
	exportCompression string
	exportChunk       int
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the ledger state to a snapshot file",
	Long: `Write every ledger entry of the configured store to a snapshot file.
The node must be stopped. Use "-" to write to standard output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, err := openOffline(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()

		ok, err := ledger.initialized()
		if err != nil {
			return err
		}
		if !ok {
			return errEmptyLedger
		}

		var w io.Writer = cmd.OutOrStdout()
		if args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		counter := &countingWriter{w: w}

		info, err := snapshot.Export(ledger.store, counter, snapshot.Options{
			Compression:  exportCompression,
			ChunkRecords: exportChunk,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries in %d chunks (%s), digest %s\n",
			info.Entries, info.Chunks, humanize.Bytes(counter.n), info.Digest)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a snapshot file into an empty store",
	Long: `Load a snapshot into the configured store, which must not hold a ledger
yet. The snapshot is verified in full before anything is written. The node
must be stopped. Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		ledger, err := openOffline(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()

		counter := &countingReader{r: r}
		info, err := snapshot.Import(ledger.store, counter)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries from %s, digest %s\n",
			info.Entries, humanize.Bytes(counter.n), info.Digest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	exportCmd.Flags().StringVar(&exportCompression, "compression", "lz4",
		"chunk compression ("+strings.Join(snapshot.Compressors(), ", ")+")")
	exportCmd.Flags().IntVar(&exportChunk, "chunk", snapshot.DefaultChunkRecords, "entries per chunk")
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}
