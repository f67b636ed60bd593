package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"product_catalog/domain"
)

func newImportCmd() *cobra.Command {
	var importFile string
	var concurrency int
	cmd := &cobra.Command{
		Use:   "import --file <file>",
		Short: "Import products from a JSON array or NDJSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if importFile == "" {
				return errors.New("--file required")
			}
			b, err := os.ReadFile(importFile)
			if err != nil {
				return err
			}
			products, err := decodeProducts(b)
			if err != nil {
				return err
			}

			var imported, skipped atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(concurrency, 1))
			for _, p := range products {
				p := p
				g.Go(func() error {
					_, err := productStore.Create(ctx, p)
					switch {
					case err == nil:
						imported.Add(1)
						return nil
					case domain.IsDuplicateProductError(err):
						skipped.Add(1)
						slog.Warn("skipping existing product", "product_id", p.ID)
						return nil
					default:
						return fmt.Errorf("import %s: %w", p.ID, err)
					}
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported.Load(), skipped.Load())
			return nil
		},
	}
	cmd.Flags().StringVar(&importFile, "file", "", "input file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "parallel create requests")
	return cmd
}

// decodeProducts accepts a JSON array, NDJSON or a single JSON object.
func decodeProducts(b []byte) ([]domain.Product, error) {
	btrim := bytes.TrimSpace(b)
	if len(btrim) == 0 {
		return nil, errors.New("empty file")
	}

	var products []domain.Product
	if btrim[0] == '[' {
		if err := json.Unmarshal(btrim, &products); err != nil {
			return nil, err
		}
		return products, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(btrim))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p domain.Product
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func newExportCmd() *cobra.Command {
	var exportFile string
	cmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export products to JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFile == "" {
				return errors.New("--file required")
			}
			out, err := productStore.List(cmd.Context())
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(exportFile, b, 0o644)
		},
	}
	cmd.Flags().StringVar(&exportFile, "file", "", "output file")
	return cmd
}
