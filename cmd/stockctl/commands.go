package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fekuna/omnipos-stock-service/internal/broker"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/stock/listener"
	"github.com/fekuna/omnipos-stock-service/internal/stock/sheet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a spreadsheet (xlsx or csv) into the stock table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := sheet.ReadFile(args[0])
			if err != nil {
				return err
			}

			res, err := a.uc.Import(cmd.Context(), table)
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d\nupdated: %d\nskipped: %d\n", res.Inserted, res.Updated, res.Skipped)
			}
			return err
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, out)
			if err != nil {
				return err
			}

			schema, err := a.uc.Schema(cmd.Context())
			if err != nil {
				return err
			}
			records, err := a.uc.ListRecords(cmd.Context())
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return sheet.Write(cmd.OutOrStdout(), f, schema, records)
			}

			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := sheet.Write(file, f, schema, records); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			a.logger.Info("Exported stock records", zap.String("path", out), zap.Int("records", len(records)))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "xlsx or csv (default: from --out, else xlsx)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	return cmd
}

func exportFormat(format, out string) (sheet.Format, error) {
	if format != "" {
		return sheet.ParseFormat(format)
	}
	if out != "" && out != "-" && filepath.Ext(out) != "" {
		return sheet.FormatFromPath(out)
	}
	return sheet.FormatXLSX, nil
}

func newSearchCmd(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "List records whose fields contain QUERY, ignoring case",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.uc.SearchRecords(cmd.Context(), &dto.SearchFilters{
				Query:  strings.Join(args, " "),
				Fields: fields,
			})
			if err != nil {
				return err
			}
			schema, err := a.uc.Schema(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), schema, records)
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "fields to match (default key and product)")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.uc.GetRecord(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			schema, err := a.uc.Schema(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range schema {
				fmt.Fprintf(w, "%s\t%s\n", f.Name, rec.Get(f.Name).String())
			}
			return w.Flush()
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	var (
		fields     []string
		quantity   string
		extraName  string
		extraValue string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "set KEY",
		Short: "Create or update one record by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFieldFlags(fields)
			if err != nil {
				return err
			}

			input := &dto.SaveRecordInput{
				Key:        args[0],
				Fields:     values,
				ExtraName:  extraName,
				ExtraValue: extraValue,
				Overwrite:  overwrite,
			}
			if cmd.Flags().Changed("quantity") {
				input.Quantity = &quantity
			}

			res, err := a.uc.SaveRecord(cmd.Context(), input)
			if err != nil {
				return err
			}

			verb := "updated"
			if res.Created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, res.Key, strings.Join(res.Fields, ", "))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&fields, "field", nil, "name=value, repeatable")
	cmd.Flags().StringVar(&quantity, "quantity", "", "stock quantity")
	cmd.Flags().StringVar(&extraName, "extra-name", "", "name of an additional field")
	cmd.Flags().StringVar(&extraValue, "extra-value", "", "value of the additional field")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "write blank values as empty instead of keeping stored ones")
	return cmd
}

// parseFieldFlags splits name=value pairs; the value may itself contain '='.
func parseFieldFlags(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --field %q, want name=value", p)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the fields of the stock table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := a.uc.Schema(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range schema {
				fmt.Fprintf(w, "%s\t%s\n", f.Name, f.Type)
			}
			return w.Flush()
		},
	}
}

func newListenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Import stock rows published on Kafka until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			consumer := broker.NewConsumer(&broker.Config{
				Brokers: a.cfg.Kafka.Brokers,
				Topic:   a.cfg.Kafka.Topic,
				GroupID: a.cfg.Kafka.GroupID,
			})
			defer consumer.Close()
			a.logger.Info("Connected to Kafka Consumer", zap.Strings("brokers", a.cfg.Kafka.Brokers), zap.String("topic", a.cfg.Kafka.Topic))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listener.NewStockListener(consumer, a.uc, a.logger).Start(ctx)
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func printRecords(out io.Writer, schema model.Schema, records []model.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(schema.Names(), "\t"))
	for _, rec := range records {
		cells := make([]string, len(schema))
		for i, f := range schema {
			cells[i] = rec.Get(f.Name).String()
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}
