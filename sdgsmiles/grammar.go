package sdgsmiles

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	smilesLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Bracket", Pattern: `\[[^\]]*\]`},
		{Name: "Organic", Pattern: `Cl|Br|[BCNOSPFI]|[bcnops]`},
		{Name: "Percent", Pattern: `%[0-9]{2}`},
		{Name: "Digit", Pattern: `[0-9]`},
		{Name: "Bond", Pattern: `[-=#$:/\\]`},
		{Name: "Punct", Pattern: `[().]`},
	})

	smilesParser = participle.MustBuild[document](
		participle.Lexer(smilesLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

type document struct {
	Components []*component `parser:"@@ ( '.' @@ )*"`
}

type component struct {
	Atom  *atomToken `parser:"@@"`
	Items []*item    `parser:"@@*"`
}

type item struct {
	Branch *branch   `parser:"  '(' @@ ')'"`
	Ring   *ringBond `parser:"| @@"`
	Next   *bonded   `parser:"| @@"`
}

type branch struct {
	Pos   lexer.Position `parser:""`
	Bond  string         `parser:"@Bond?"`
	Atom  *atomToken     `parser:"@@"`
	Items []*item        `parser:"@@*"`
}

type ringBond struct {
	Pos   lexer.Position `parser:""`
	Bond  string         `parser:"@Bond?"`
	Label string         `parser:"@( Digit | Percent )"`
}

type bonded struct {
	Bond string     `parser:"@Bond?"`
	Atom *atomToken `parser:"@@"`
}

type atomToken struct {
	Pos     lexer.Position `parser:""`
	Organic string         `parser:"  @Organic"`
	Bracket string         `parser:"| @Bracket"`
}
