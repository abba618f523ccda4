package main

import (
	"strings"
	"testing"
)

func TestRewriteBoardArgs(t *testing.T) {
	const id = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"corkboard"}, []string{"corkboard"}},
		{[]string{"corkboard", id}, []string{"corkboard", "--board", id}},
		{[]string{"corkboard", "--store", "postgres", id}, []string{"corkboard", "--store", "postgres", "--board", id}},
		{[]string{"corkboard", "boards", "show", id}, []string{"corkboard", "boards", "show", id}},
		{[]string{"corkboard", "--", id}, []string{"corkboard", "--", id}},
		{[]string{"corkboard", "--pretty", id}, []string{"corkboard", "--pretty", "--board", id}},
	}
	for _, tc := range cases {
		got := rewriteBoardArgs(tc.in)
		if strings.Join(got, " ") != strings.Join(tc.want, " ") {
			t.Fatalf("rewriteBoardArgs(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
