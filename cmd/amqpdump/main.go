// Command amqpdump decodes AMQP 1.0 encoded data and pretty-prints the
// value trees. Input is a file or stdin, either raw bytes or hex text, and
// is interpreted as a sequence of bare values or as framed traffic.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	amqp "github.com/clebertsuconic/dove"
)

func main() {
	var (
		hexInput bool
		framed   bool
	)

	root := &cobra.Command{
		Use:   "amqpdump [file]",
		Short: "Decode AMQP 1.0 encoded values or frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cmd, args, logger, hexInput, framed)
		},
	}
	root.Flags().BoolVar(&hexInput, "hex", false, "treat input as hex text")
	root.Flags().BoolVar(&framed, "framed", false, "decode framed traffic instead of bare values")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string, logger *zap.Logger, hexInput, framed bool) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	if hexInput {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
				return -1
			}
			return r
		}, string(data))
		data, err = hex.DecodeString(cleaned)
		if err != nil {
			return err
		}
	}

	buf := bytes.NewBuffer(data)
	for buf.Len() > 0 {
		if framed {
			f, err := amqp.ReadFrame(buf)
			if err != nil {
				logger.Error("frame decode failed", zap.Error(err), zap.Int("remaining", buf.Len()))
				return err
			}
			logger.Info("frame",
				zap.Uint8("type", f.FrameType),
				zap.Uint16("channel", f.Channel),
			)
			if f.Body == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "<heartbeat>")
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(f.Body))
		} else {
			v, err := amqp.DecodeValue(buf)
			if err != nil {
				logger.Error("value decode failed", zap.Error(err), zap.Int("remaining", buf.Len()))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
		}
	}
	return nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func formatValue(v amqp.Value) string {
	switch t := v.(type) {
	case amqp.Null:
		return "null"
	case amqp.Bool:
		return fmt.Sprintf("%t", bool(t))
	case amqp.Ubyte:
		return fmt.Sprintf("ubyte(%d)", t)
	case amqp.Ushort:
		return fmt.Sprintf("ushort(%d)", t)
	case amqp.Uint:
		return fmt.Sprintf("uint(%d)", t)
	case amqp.Ulong:
		return fmt.Sprintf("ulong(%d)", t)
	case amqp.Byte:
		return fmt.Sprintf("byte(%d)", t)
	case amqp.Short:
		return fmt.Sprintf("short(%d)", t)
	case amqp.Int:
		return fmt.Sprintf("int(%d)", t)
	case amqp.Long:
		return fmt.Sprintf("long(%d)", t)
	case amqp.String:
		return fmt.Sprintf("%q", string(t))
	case amqp.Symbol:
		return fmt.Sprintf(":%s", string(t))
	case amqp.Binary:
		return fmt.Sprintf("b%q", hex.EncodeToString(t))
	case amqp.Array:
		return formatSeq("array", []amqp.Value(t))
	case amqp.List:
		return formatSeq("list", []amqp.Value(t))
	case amqp.Map:
		var sb strings.Builder
		sb.WriteString("map{")
		for i, e := range t {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(formatValue(e.Key))
			sb.WriteString(": ")
			sb.WriteString(formatValue(e.Value))
		}
		sb.WriteString("}")
		return sb.String()
	case amqp.Described:
		return fmt.Sprintf("described(%s, %s)", formatValue(t.Descriptor), formatValue(t.Body))
	}
	return fmt.Sprintf("%v", v)
}

func formatSeq(kind string, values []amqp.Value) string {
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteString("[")
	for i, e := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatValue(e))
	}
	sb.WriteString("]")
	return sb.String()
}
