// Command amandac-abi exports run_module, a C-ABI entry point for
// embedding hosts. It is a separate build target from cmd/amanda so
// that ordinary `go build`/`go test` of the module never requires cgo:
// build with `go build -buildmode=c-archive` (or c-shared) from this
// directory only.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"context"
	"log/slog"
	"os"
	"unsafe"

	"github.com/amanda-lang/amanda-vm/pkg/builtins"
	"github.com/amanda-lang/amanda-vm/pkg/loader"
	"github.com/amanda-lang/amanda-vm/pkg/vm"
)

//export run_module
func run_module(buffer *C.uchar, size C.uint) C.uchar {
	data := C.GoBytes(unsafe.Pointer(buffer), C.int(size))

	mod, err := loader.Load(data)
	if err != nil {
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry := builtins.NewRegistry(os.Stdout, os.Stdin)
	interp := vm.New(registry.Exports(), logger)

	if err := interp.Run(context.Background(), mod); err != nil {
		return 1
	}
	return 0
}

func main() {}
