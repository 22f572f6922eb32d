package intrinsics

import "github.com/dexlens/dexlens/pkg/vm"

// java.io.PrintStream's println family (reached through System.out/err)
// has no meaningful return value and no heap effect worth modeling; it
// is registered as a handled no-op rather than left unresolved so a
// trivial logging call never gets mistaken for an unmodeled call whose
// result should have mattered.
func registerSystem(t *Table) {
	printStream := "Ljava/io/PrintStream;"
	for _, proto := range []string{
		"()V", "(Ljava/lang/String;)V", "(I)V", "(J)V",
		"(Z)V", "(C)V", "(D)V", "(Ljava/lang/Object;)V",
	} {
		t.register(printStream, "println", proto, noop)
		t.register(printStream, "print", proto, noop)
	}
}

func noop(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
	return vm.UnknownValue(), nil
}
