package main

import (
	stderrors "errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"pmatch/internal/builtin"
	"pmatch/internal/cases"
	"pmatch/pkg/parser"
	"pmatch/pkg/runtime"
)

func newParseCmd() *cobra.Command {
	var showAST bool

	cmd := &cobra.Command{
		Use:   "parse <pattern>",
		Short: MsgParseShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := parser.Parse(args[0])
			if err != nil {
				return err
			}
			if showAST {
				return printJSON(cmd.OutOrStdout(), root)
			}
			fmt.Fprintln(cmd.OutOrStdout(), root.Canonical)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAST, "ast", false, MsgFlagAST)
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <pattern> [json-arg...]",
		Short: MsgExtractShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.newEnv()
			if err != nil {
				return err
			}
			values, err := decodeArgs(args[1:])
			if err != nil {
				return err
			}
			caps, err := env.Extract(args[0], values...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), caps)
		},
	}
}

func newMatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match --cases <file> [json-arg...]",
		Short: MsgMatchShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Cases == "" {
				return stderrors.New(MsgErrNoCases)
			}
			env, err := a.newEnv()
			if err != nil {
				return err
			}
			f, err := cases.Load(a.cfg.Cases)
			if err != nil {
				return err
			}
			d, err := f.Build(env)
			if err != nil {
				return err
			}
			values, err := decodeArgs(args)
			if err != nil {
				return err
			}
			res, err := d.Match(values...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("cases", "", MsgFlagCases)
	return cmd
}

func newExtractorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extractors [prefix]",
		Short: MsgExtractorsShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := runtime.NewExtractors()
			if err := builtin.Register(ex); err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			for _, name := range ex.List(prefix) {
				fmt.Fprintln(cmd.OutOrStdout(), "$"+name)
			}
			return nil
		},
	}
}

func decodeArgs(args []string) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		if err := json.Unmarshal([]byte(arg), &values[i]); err != nil {
			return nil, fmt.Errorf(MsgErrBadArg, i+1, err)
		}
	}
	return values, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
