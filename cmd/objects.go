package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/objnode/internal/adapters/codec"
	"github.com/bnema/objnode/internal/adapters/transport/httpnode"
	"github.com/bnema/objnode/internal/domain"
	"github.com/spf13/cobra"
)

const stringArgPrefix = "str:"

func newCreateCmd(app *app) *cobra.Command {
	var nodeURL string
	var session string
	var fields []string

	cmd := &cobra.Command{
		Use:   "create <class>",
		Short: "Create a persistent object on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}

			resp, err := app.adminClient(nodeURL).Create(cmd.Context(), httpnode.CreateRequest{
				Class:   args[0],
				Fields:  parsed,
				Session: session,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&nodeURL, "node", "", "Node API URL (defaults to this node)")
	cmd.Flags().StringVar(&session, "session", "", "Session that should hold the new object")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field as key=value (repeatable)")

	return cmd
}

func newCallCmd(app *app) *cobra.Command {
	var nodeURL string
	var session string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "call <object-id> <operation> [args...]",
		Short: "Run an operation on an object wherever it lives",
		Long: "call sends one operation through a node's dispatcher. Arguments that look like integers, " +
			"floats, booleans or object ids are sent typed; prefix an argument with " + stringArgPrefix + " to send it as a string.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseObjectID(args[0]); err != nil {
				return err
			}

			callArgs := make([]any, 0, len(args)-2)
			for _, raw := range args[2:] {
				callArgs = append(callArgs, parseArg(raw))
			}
			encoded, err := codec.JSONArgs{}.EncodeArgs(callArgs)
			if err != nil {
				return err
			}

			raw, err := app.adminClient(nodeURL).Execute(cmd.Context(), httpnode.CallRequest{
				Object:    args[0],
				Operation: args[1],
				Session:   session,
				Args:      encoded,
			})
			if err != nil {
				return err
			}

			if asJSON {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}

			result, err := codec.JSONArgs{}.DecodeResult(raw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatResult(result))
			return err
		},
	}

	cmd.Flags().StringVar(&nodeURL, "node", "", "Node API URL (defaults to this node)")
	cmd.Flags().StringVar(&session, "session", "", "Calling session")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tagged JSON result")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func parseFields(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	fields := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid field %q: want key=value", entry)
		}
		fields[strings.TrimSpace(key)] = value
	}
	return fields, nil
}

func parseArg(raw string) any {
	if strings.HasPrefix(raw, stringArgPrefix) {
		return strings.TrimPrefix(raw, stringArgPrefix)
	}
	if id, err := domain.ParseObjectID(raw); err == nil {
		return id
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if strings.ContainsAny(raw, ".eE") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	return raw
}

func formatResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "null"
	case domain.ObjectID:
		return v.String()
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatResult(item))
		}
		return strings.Join(parts, "\n")
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
