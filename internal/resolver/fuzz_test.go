package resolver

import "testing"

func FuzzTokenize(f *testing.F) {
	f.Add("engineSpeed")
	f.Add("Map.value[3][1]")
	f.Add("node->next->value")
	f.Add("legacy._3_._1_")
	f.Add("")
	f.Add("[")
	f.Add(".")
	f.Add("->")
	f.Fuzz(func(t *testing.T, path string) {
		tokenize(path) // must not panic
	})
}
