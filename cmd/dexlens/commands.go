package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dexlens/dexlens/internal/apk"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/query"
	"github.com/dexlens/dexlens/pkg/vm"
)

func newLoadCmd(newLogger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "load <apk>",
		Short: "Parse an APK and print a summary of what was found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := apk.Load(args[0], newLogger())
			if err != nil {
				return err
			}
			ctx := loaded.Context
			methods, fields := 0, 0
			for _, c := range ctx.Classes {
				methods += len(c.DirectMethods) + len(c.VirtualMethods)
				fields += len(c.StaticFields) + len(c.InstanceFields)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dex files:  %d\n", len(ctx.DexFiles))
			fmt.Fprintf(cmd.OutOrStdout(), "classes:    %d\n", len(ctx.Classes))
			fmt.Fprintf(cmd.OutOrStdout(), "methods:    %d\n", methods)
			fmt.Fprintf(cmd.OutOrStdout(), "fields:     %d\n", fields)
			if ctx.ParseErrors != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "dex parse errors: %d\n", ctx.ParseErrors.Len())
			}
			return nil
		},
	}
}

func requireAPK(apkPath *string) error {
	if *apkPath == "" {
		return fmt.Errorf("--apk is required")
	}
	return nil
}

func loadEngine(apkPath string, logger *zap.Logger) (*query.Engine, *model.Context, error) {
	loaded, err := apk.Load(apkPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return query.NewEngine(loaded.Context, loaded.Logger), loaded.Context, nil
}

func newFindCmd(apkPath *string, newLogger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "find <regex> <class|method|field>",
		Short: "Search classes, methods, or fields by a regular expression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPK(apkPath); err != nil {
				return err
			}
			kind, err := parseKind(args[1])
			if err != nil {
				return err
			}
			e, _, err := loadEngine(*apkPath, newLogger())
			if err != nil {
				return err
			}
			results, err := e.Find(args[0], kind)
			if err != nil {
				return err
			}
			for _, ev := range results {
				fmt.Fprintln(cmd.OutOrStdout(), describeEvidence(ev))
			}
			return nil
		},
	}
}

func newXrefCmd(apkPath *string, newLogger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "xref <fqdn>",
		Short: "List every instruction site that references a class, method, or field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPK(apkPath); err != nil {
				return err
			}
			e, ctx, err := loadEngine(*apkPath, newLogger())
			if err != nil {
				return err
			}
			entity, err := resolveEvidence(ctx, args[0])
			if err != nil {
				return err
			}
			sites, err := e.CrossReferences(entity)
			if err != nil {
				return err
			}
			for _, ev := range sites {
				site, err := ev.AsSite()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s @%d\n", site.Method.Descriptor, site.CodeIndex)
			}
			return nil
		},
	}
}

func newEmulateCmd(apkPath *string, newLogger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "emulate <method-fqdn> [args...]",
		Short: "Run a method through the Dalvik VM emulator and print its result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPK(apkPath); err != nil {
				return err
			}
			e, ctx, err := loadEngine(*apkPath, newLogger())
			if err != nil {
				return err
			}
			method, err := resolveMethod(ctx, args[0])
			if err != nil {
				return err
			}
			values := make([]vm.Value, len(args)-1)
			for i, a := range args[1:] {
				values[i] = parseArg(a)
			}
			result, err := e.Emulate(method, values)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
}

func newBranchesCmd(apkPath *string, newLogger func() *zap.Logger) *cobra.Command {
	var conservative bool
	cmd := &cobra.Command{
		Use:   "branches <method-fqdn>",
		Short: "Run the symbolic flow analyser and report dead branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPK(apkPath); err != nil {
				return err
			}
			e, ctx, err := loadEngine(*apkPath, newLogger())
			if err != nil {
				return err
			}
			method, err := resolveMethod(ctx, args[0])
			if err != nil {
				return err
			}
			result, err := e.AnalyseBranches(method, conservative)
			if err != nil {
				return err
			}
			for _, b := range result.Branches {
				fmt.Fprintf(cmd.OutOrStdout(), "pc=%d taken=%d fallthrough=%d dead=%s\n",
					b.PC, b.TakenPC, b.FallthroughPC, b.DeadSide)
			}
			if result.Incomplete {
				fmt.Fprintln(cmd.OutOrStdout(), "(incomplete: step budget or widening limit reached)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&conservative, "conservative", false, "run the analyser in conservative mode")
	return cmd
}

func parseKind(s string) (query.Kind, error) {
	switch strings.ToLower(s) {
	case "class":
		return query.KindClass, nil
	case "method":
		return query.KindMethod, nil
	case "field":
		return query.KindField, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (want class, method, or field)", s)
	}
}

func describeEvidence(ev query.Evidence) string {
	switch ev.Kind {
	case query.KindClass:
		return ev.Class.Descriptor
	case query.KindMethod:
		return ev.Method.Descriptor
	case query.KindField:
		return ev.Field.Descriptor
	default:
		return ev.Kind.String()
	}
}

// resolveEvidence looks up the exact descriptor named by fqdn,
// inferring its kind from the descriptor's own shape: a bare type
// descriptor is a class, "Lclass;->name(...)ret" is a method,
// "Lclass;->name:type" is a field.
func resolveEvidence(ctx *model.Context, fqdn string) (query.Evidence, error) {
	if !strings.Contains(fqdn, "->") {
		c, ok := ctx.Classes[fqdn]
		if !ok {
			return query.Evidence{}, fmt.Errorf("no class %q in this context", fqdn)
		}
		return query.Evidence{Kind: query.KindClass, Class: c}, nil
	}
	if strings.Contains(fqdn, "(") {
		m, err := resolveMethod(ctx, fqdn)
		if err != nil {
			return query.Evidence{}, err
		}
		return query.Evidence{Kind: query.KindMethod, Method: m}, nil
	}
	for _, c := range ctx.Classes {
		for _, f := range append(append([]*model.Field{}, c.StaticFields...), c.InstanceFields...) {
			if f.Descriptor == fqdn {
				return query.Evidence{Kind: query.KindField, Field: f}, nil
			}
		}
	}
	return query.Evidence{}, fmt.Errorf("no field %q in this context", fqdn)
}

func resolveMethod(ctx *model.Context, fqdn string) (*model.Method, error) {
	for _, c := range ctx.Classes {
		for _, m := range append(append([]*model.Method{}, c.DirectMethods...), c.VirtualMethods...) {
			if m.Descriptor == fqdn {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("no method %q in this context", fqdn)
}

// parseArg turns a CLI argument into a Value: an integer literal
// becomes Int, anything else is passed through as String (there is no
// syntax for long/float/double/object arguments — the emulator's
// other value kinds aren't reachable from a command line).
func parseArg(a string) vm.Value {
	if n, err := strconv.ParseInt(a, 10, 32); err == nil {
		return vm.IntValue(int32(n))
	}
	return vm.StringValue(a)
}
