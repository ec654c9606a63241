package sqlexpr

import (
	"testing"

	"github.com/basaltdb/basalt/dialect"
	"github.com/basaltdb/basalt/dialect/sql"
)

func BenchmarkRenderOp(b *testing.B) {
	x := NewOp(OpConcat, Wrap("tags"), Value("a=>1"))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := sql.Render(dialect.Postgres, x); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderNested(b *testing.B) {
	x := NewOp(OpMinus,
		NewFunc("delete", Wrap("tags"), Value("a")),
		NewCast(Value("b"), "text"),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := sql.Render(dialect.Postgres, x); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRewriteIdentity(b *testing.B) {
	x := NewOp(OpMinus,
		NewFunc("delete", Wrap("tags"), Value("a")),
		NewCast(Value("b"), "text"),
	)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Rewrite(x, Identity)
	}
}
