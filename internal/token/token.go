// Package token defines the lexical token kinds shared by the lexer and
// parser. This plumbing sits outside the specified core components; it
// exists only to get source text into the AST shapes the core operates on.
package token

import "github.com/Narrain/eda-tool/ast"

// Kind identifies a lexical token class.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	StringLit

	// Keywords
	KwModule
	KwEndmodule
	KwInput
	KwOutput
	KwInout
	KwWire
	KwReg
	KwLogic
	KwInteger
	KwParameter
	KwLocalparam
	KwAssign
	KwAlways
	KwAlwaysComb
	KwAlwaysFF
	KwAlwaysLatch
	KwInitial
	KwBegin
	KwEnd
	KwIf
	KwElse
	KwCase
	KwCasez
	KwCasex
	KwEndcase
	KwDefault
	KwGenerate
	KwEndgenerate
	KwFor
	KwGenvar
	KwPosedge
	KwNegedge
	KwOr
	KwFinish

	// Punctuation / operators
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Semi
	Colon
	Comma
	Dot
	Hash
	At
	Star
	Question

	Assign       // =
	NonBlocking  // <=
	PlusOp
	MinusOp
	Bang
	Tilde
	Amp
	AmpAmp
	Pipe
	PipePipe
	Caret
	TildeCaret
	EqEq
	NotEq
	CaseEqOp  // ===
	CaseNeqOp // !==
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
)

// Token is one lexical token.
type Token struct {
	Kind Kind
	Text string
	Pos  ast.Pos
}

var keywords = map[string]Kind{
	"module":       KwModule,
	"endmodule":    KwEndmodule,
	"input":        KwInput,
	"output":       KwOutput,
	"inout":        KwInout,
	"wire":         KwWire,
	"reg":          KwReg,
	"logic":        KwLogic,
	"integer":      KwInteger,
	"parameter":    KwParameter,
	"localparam":   KwLocalparam,
	"assign":       KwAssign,
	"always":       KwAlways,
	"always_comb":  KwAlwaysComb,
	"always_ff":    KwAlwaysFF,
	"always_latch": KwAlwaysLatch,
	"initial":      KwInitial,
	"begin":        KwBegin,
	"end":          KwEnd,
	"if":           KwIf,
	"else":         KwElse,
	"case":         KwCase,
	"casez":        KwCasez,
	"casex":        KwCasex,
	"endcase":      KwEndcase,
	"default":      KwDefault,
	"generate":     KwGenerate,
	"endgenerate":  KwEndgenerate,
	"for":          KwFor,
	"genvar":       KwGenvar,
	"posedge":      KwPosedge,
	"negedge":      KwNegedge,
	"or":           KwOr,
}

// Lookup returns the keyword Kind for ident and true, or the zero Kind
// and false if it is a plain identifier.
func Lookup(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
