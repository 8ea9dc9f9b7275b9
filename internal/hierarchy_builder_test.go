package schedsim_internal

import "testing"

func TestModuleBuilderAddModuleAndVCPUs(t *testing.T) {
	b := NewModuleBuilder("kernel", NewFCFS(nil, ZeroTime()))
	root := b.Root()
	if root.Name != "kernel" {
		t.Fatalf("Root: got name %q, want %q", root.Name, "kernel")
	}

	child := AddModule(root, "vm0", NewFCFS(nil, ZeroTime()))
	if child.Parent != root {
		t.Fatal("AddModule: expected the child's parent to be root")
	}
	if len(root.children) != 1 || root.children[0] != child {
		t.Fatal("AddModule: expected root to list child among its children")
	}

	b.AddVCPUs(root, child, 3)
	if got, want := root.NumWorkThreads(), 3; got != want {
		t.Fatalf("NumWorkThreads after AddVCPUs: got %d, want %d", got, want)
	}
}

func TestFormatTid(t *testing.T) {
	cases := map[int]string{0: "0", 9: "9", 10: "10", 42: "42", 123: "123"}
	for n, want := range cases {
		if got := formatTid(n); got != want {
			t.Errorf("formatTid(%d): got %q, want %q", n, got, want)
		}
	}
}
