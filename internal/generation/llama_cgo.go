//go:build llama

package generation

// cgo link directives for the in-process llama backend.
// The rpath of $ORIGIN lets the loader find libllama.so next to the binary;
// -L points the linker at ./bin where the library is built.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
