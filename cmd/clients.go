package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/foomo/clientregistry/pkg/registry"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewListCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all clients in stored order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				c, err := store.ReadAll(ctx)
				if err != nil {
					return err
				}
				if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
					return writeJSON(cmd.OutOrStdout(), c)
				}
				return writeTable(cmd.OutOrStdout(), c)
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print clients as json")
	return cmd
}

func NewCreateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Append a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := recordFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if err := record.Validate(); err != nil {
				return err
			}
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				created, err := store.Create(ctx, record)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created client %q (%s)\n", created.Name, created.ID)
				return err
			})
		},
	}
	addRecordFlags(cmd.Flags())
	return cmd
}

func NewUpdateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [index]",
		Short: "Replace the client at index, fields not given are kept",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				id, _ := cmd.Flags().GetString("id")
				index, record, err := selectRecord(ctx, store, args, id)
				if err != nil {
					return err
				}
				if err := mergeRecordFlags(cmd.Flags(), &record); err != nil {
					return err
				}
				if err := record.Validate(); err != nil {
					return err
				}
				if id != "" {
					_, err = store.UpdateByID(ctx, id, record)
				} else {
					_, err = store.Update(ctx, index, record)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated client %d\n", index)
				return err
			})
		},
	}
	addRecordFlags(cmd.Flags())
	cmd.Flags().String("id", "", "Select the client by id instead of index")
	return cmd
}

func NewDeleteCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [index]",
		Short: "Remove the client at index, later clients shift down by one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				id, _ := cmd.Flags().GetString("id")
				index, record, err := selectRecord(ctx, store, args, id)
				if err != nil {
					return err
				}
				if yes, _ := cmd.Flags().GetBool("yes"); !yes {
					ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("delete client %d %q?", index, record.Name))
					if err != nil {
						return err
					}
					if !ok {
						_, err = fmt.Fprintln(cmd.OutOrStdout(), "aborted")
						return err
					}
				}
				if id != "" {
					err = store.DeleteByID(ctx, id)
				} else {
					err = store.Delete(ctx, index)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted client %d\n", index)
				return err
			})
		},
	}
	cmd.Flags().String("id", "", "Select the client by id instead of index")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// withStore opens the configured store for the duration of fn
func withStore(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, store *registry.Store) error) error {
	l := zap.L().Named(cmd.Name())
	store, err := createStore(cmd.Context(), v, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Warn("failed to close store", zap.Error(err))
		}
	}()
	return fn(cmd.Context(), store)
}

func selectRecord(ctx context.Context, store *registry.Store, args []string, id string) (int, registry.Record, error) {
	switch {
	case id != "" && len(args) > 0:
		return 0, registry.Record{}, errors.New("either an index or --id must be given, not both")
	case id != "":
		return store.Find(ctx, id)
	case len(args) == 0:
		return 0, registry.Record{}, errors.New("an index or --id is required")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, registry.Record{}, errors.Errorf("index %q is not a number", args[0])
	}
	record, err := store.Get(ctx, index)
	return index, record, err
}

// mergeRecordFlags overwrites the fields whose flags were set explicitly
func mergeRecordFlags(flags *pflag.FlagSet, record *registry.Record) error {
	for name, dst := range map[string]*string{
		"name":  &record.Name,
		"email": &record.Email,
		"phone": &record.Phone,
		"city":  &record.City,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", question); err != nil {
		return false, err
	}
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func writeTable(w io.Writer, c registry.Collection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "INDEX\tID\tNAME\tEMAIL\tPHONE\tCITY")
	for i, r := range c {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i, r.ID, r.Name, r.Email, r.Phone, r.City)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not encode clients")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
