package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"teenyjvm/classfile"
	"teenyjvm/vm"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "disasm <class-file>",
		Short:         "Print the decoded instruction stream of every method",
		Args:          exactlyOneClassFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassembleFile(args[0])
		},
	}
}

func disassembleFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	class, err := classfile.Parse(f)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	for _, m := range class.Methods {
		fmt.Print(vm.Disassemble(m.Name, m.Descriptor, m.Code.Code))
	}
	return nil
}
