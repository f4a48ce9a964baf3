package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/d?sslmode=disable", "postgres://u:p@h:5432/d?sslmode=disable"},
		{"  postgres://u:p@h/d  ", "postgres://u:p@h/d"},
		{`"host=localhost user=u dbname=d"`, "host=localhost user=u dbname=d sslmode=disable"},
		{"host=localhost   user=u  sslmode=require", "host=localhost user=u sslmode=require"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Fatalf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
