package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/livetree"
	"github.com/vango-dev/idom/pkg/protocol"
)

func decodeCmd(a *app) *cobra.Command {
	var (
		replay  bool
		rootTag string
	)

	cmd := &cobra.Command{
		Use:   "decode <frames.bin>",
		Short: "Print recorded mutation frames",
		Long: `Print the mutation frames written by idom run --frames.

With --replay the frames are also applied to an empty tree and the
resulting HTML is printed, which checks that the stream is complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.decode(cmd.OutOrStdout(), args[0], replay, rootTag)
		},
	}

	cmd.Flags().BoolVar(&replay, "replay", false, "Apply the frames and print the resulting HTML")
	cmd.Flags().StringVar(&rootTag, "root", "div", "Tag of the mount element when replaying")
	return cmd
}

func (a *app) decode(out io.Writer, path string, replay bool, rootTag string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New("E160").Wrap(err)
	}

	frames, decodeErr := protocol.ReadFrames(data)
	for _, f := range frames {
		fmt.Fprintf(out, "frame %d (%d mutations)\n", f.Seq, len(f.Mutations))
		for _, m := range f.Mutations {
			fmt.Fprintf(out, "  %s\n", m.String())
		}
	}
	if decodeErr != nil {
		return errors.New("E140").Wrap(decodeErr).
			WithDetail(fmt.Sprintf("Decoded %d complete frames before the error.", len(frames)))
	}

	if !replay {
		return nil
	}
	root := livetree.NewElement(rootTag)
	replica := protocol.NewReplica[*livetree.Node](livetree.NewTree(), root)
	for _, f := range frames {
		if err := replica.Apply(f); err != nil {
			return errors.New("E141").Wrap(err)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, livetree.RenderChildren(root, a.renderOptions()))
	if !a.renderOptions().Pretty {
		fmt.Fprintln(out)
	}
	return nil
}
