package cmdutil

import "testing"

func TestFilterItemsNoSelectors(t *testing.T) {
	items := []string{"a", "b"}
	got := FilterItems(items, nil, func(s string) string { return s })
	if len(got) != 2 {
		t.Fatalf("expected passthrough, got %v", got)
	}
	got = FilterItems(items, []string{"", ""}, func(s string) string { return s })
	if len(got) != 2 {
		t.Fatalf("blank selectors must pass through, got %v", got)
	}
}

func TestFilterItemsSelects(t *testing.T) {
	items := []string{"2016", "2017", "2018"}
	got := FilterItems(items, []string{"2017", "2099"}, func(s string) string { return s })
	if len(got) != 1 || got[0] != "2017" {
		t.Fatalf("unexpected result: %v", got)
	}
}
