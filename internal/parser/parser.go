// Package parser implements a recursive-descent parser over the
// synthesizable language subset described at the AST boundary (see
// package ast): module declarations, nets/params, continuous assigns,
// always/initial processes, generate constructs, and instantiation.
package parser

import (
	"github.com/pkg/errors"

	"github.com/Narrain/eda-tool/ast"
	"github.com/Narrain/eda-tool/internal/lexer"
	"github.com/Narrain/eda-tool/internal/token"
)

// Parser consumes a pre-scanned token stream and builds an *ast.Design.
type Parser struct {
	file string
	toks []token.Token
	pos  int
}

// Parse lexes and parses src (attributed to file for diagnostics) into a
// Design.
func Parse(file, src string) (*ast.Design, error) {
	toks, err := lexer.Tokenize(file, src)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}
	p := &Parser{file: file, toks: toks}
	return p.parseDesign()
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind, what string) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, errors.Errorf("%s: expected %s, got %q", p.cur().Pos, what, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) curPos() ast.Pos { return p.cur().Pos }

func (p *Parser) parseDesign() (*ast.Design, error) {
	d := &ast.Design{}
	for !p.at(token.EOF) {
		m, err := p.parseModule()
		if err != nil {
			return nil, err
		}
		d.Modules = append(d.Modules, m)
	}
	return d, nil
}

func (p *Parser) parseModule() (*ast.Module, error) {
	pos := p.curPos()
	if _, err := p.expect(token.KwModule, "'module'"); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident, "module name")
	if err != nil {
		return nil, err
	}
	m := &ast.Module{Pos: pos, Name: name.Text}

	if p.at(token.LParen) {
		p.advance()
		for !p.at(token.RParen) {
			port, err := p.parsePort()
			if err != nil {
				return nil, err
			}
			m.Ports = append(m.Ports, port)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}

	for !p.at(token.KwEndmodule) && !p.at(token.EOF) {
		item, err := p.parseModuleItem()
		if err != nil {
			return nil, err
		}
		if item != nil {
			m.Items = append(m.Items, item)
		}
	}
	if _, err := p.expect(token.KwEndmodule, "'endmodule'"); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Parser) parsePort() (ast.Port, error) {
	switch p.cur().Kind {
	case token.KwInput, token.KwOutput, token.KwInout:
		p.advance()
	}
	switch p.cur().Kind {
	case token.KwWire, token.KwReg, token.KwLogic:
		p.advance()
	}
	var msb, lsb ast.Expr
	if p.at(token.LBracket) {
		var err error
		msb, lsb, err = p.parseRange()
		if err != nil {
			return ast.Port{}, err
		}
	}
	name, err := p.expect(token.Ident, "port name")
	if err != nil {
		return ast.Port{}, err
	}
	return ast.Port{Name: name.Text, MSB: msb, LSB: lsb}, nil
}

func (p *Parser) parseRange() (msb, lsb ast.Expr, err error) {
	if _, err = p.expect(token.LBracket, "'['"); err != nil {
		return
	}
	msb, err = p.parseExpr()
	if err != nil {
		return
	}
	if _, err = p.expect(token.Colon, "':'"); err != nil {
		return
	}
	lsb, err = p.parseExpr()
	if err != nil {
		return
	}
	_, err = p.expect(token.RBracket, "']'")
	return
}

func (p *Parser) parseModuleItem() (ast.Item, error) {
	switch p.cur().Kind {
	case token.KwWire, token.KwLogic:
		return p.parseNetDecl()
	case token.KwReg, token.KwInteger:
		return p.parseVarDecl()
	case token.KwParameter, token.KwLocalparam:
		return p.parseParamDecl()
	case token.KwAssign:
		return p.parseContinuousAssign()
	case token.KwAlways, token.KwAlwaysComb, token.KwAlwaysFF, token.KwAlwaysLatch:
		return p.parseAlways()
	case token.KwInitial:
		return p.parseInitial()
	case token.KwGenerate:
		return p.parseGenerate()
	case token.KwGenvar:
		return p.parseGenVarDecl()
	case token.Ident:
		return p.parseInstance()
	case token.Semi:
		p.advance()
		return nil, nil
	default:
		return nil, errors.Errorf("%s: unexpected token %q in module body", p.cur().Pos, p.cur().Text)
	}
}

func (p *Parser) parseNetDecl() (ast.Item, error) {
	pos := p.curPos()
	p.advance() // wire/logic
	var msb, lsb ast.Expr
	var err error
	if p.at(token.LBracket) {
		msb, lsb, err = p.parseRange()
		if err != nil {
			return nil, err
		}
	}
	name, err := p.expect(token.Ident, "net name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.at(token.Assign) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return ast.NetDecl{ItemPos: ast.ItemPos{Pos: pos}, Name: name.Text, MSB: msb, LSB: lsb, Init: init}, nil
}

func (p *Parser) parseVarDecl() (ast.Item, error) {
	pos := p.curPos()
	kind := ast.DeclReg
	if p.at(token.KwInteger) {
		kind = ast.DeclInteger
	}
	p.advance()
	var msb, lsb ast.Expr
	var err error
	if p.at(token.LBracket) {
		msb, lsb, err = p.parseRange()
		if err != nil {
			return nil, err
		}
	}
	name, err := p.expect(token.Ident, "variable name")
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.at(token.Assign) {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return ast.VarDecl{ItemPos: ast.ItemPos{Pos: pos}, Kind: kind, Name: name.Text, MSB: msb, LSB: lsb, Init: init}, nil
}

func (p *Parser) parseParamDecl() (ast.Item, error) {
	pos := p.curPos()
	local := p.at(token.KwLocalparam)
	p.advance()
	name, err := p.expect(token.Ident, "parameter name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return ast.ParamDecl{ItemPos: ast.ItemPos{Pos: pos}, Name: name.Text, Value: val, Local: local}, nil
}

func (p *Parser) parseContinuousAssign() (ast.Item, error) {
	pos := p.curPos()
	p.advance() // assign
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return ast.ContinuousAssign{ItemPos: ast.ItemPos{Pos: pos}, LHS: lhs, RHS: rhs}, nil
}

func (p *Parser) parseAlways() (ast.Item, error) {
	pos := p.curPos()
	kind := ast.AlwaysPlain
	switch p.cur().Kind {
	case token.KwAlwaysComb:
		kind = ast.AlwaysComb
	case token.KwAlwaysFF:
		kind = ast.AlwaysFF
	case token.KwAlwaysLatch:
		kind = ast.AlwaysLatch
	}
	p.advance()

	a := ast.Always{ItemPos: ast.ItemPos{Pos: pos}, Kind: kind}
	if p.at(token.At) {
		p.advance()
		if p.at(token.Star) {
			p.advance()
			a.Star = true
		} else if p.at(token.LParen) {
			p.advance()
			if p.at(token.Star) {
				p.advance()
				a.Star = true
			} else {
				for {
					item, err := p.parseSensItem()
					if err != nil {
						return nil, err
					}
					a.Sensitivity = append(a.Sensitivity, item)
					if p.at(token.KwOr) || p.at(token.Comma) {
						p.advance()
						continue
					}
					break
				}
			}
			if _, err := p.expect(token.RParen, "')'"); err != nil {
				return nil, err
			}
		}
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	a.Body = body
	return a, nil
}

func (p *Parser) parseSensItem() (ast.SensItem, error) {
	edge := ast.SensLevel
	switch p.cur().Kind {
	case token.KwPosedge:
		edge = ast.SensPosedge
		p.advance()
	case token.KwNegedge:
		edge = ast.SensNegedge
		p.advance()
	}
	name, err := p.expect(token.Ident, "signal name")
	if err != nil {
		return ast.SensItem{}, err
	}
	return ast.SensItem{Edge: edge, Name: name.Text}, nil
}

func (p *Parser) parseInitial() (ast.Item, error) {
	pos := p.curPos()
	p.advance()
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.Initial{ItemPos: ast.ItemPos{Pos: pos}, Body: body}, nil
}

func (p *Parser) parseGenVarDecl() (ast.Item, error) {
	pos := p.curPos()
	p.advance()
	name, err := p.expect(token.Ident, "genvar name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return ast.GenVarDecl{ItemPos: ast.ItemPos{Pos: pos}, Name: name.Text}, nil
}

func (p *Parser) parseGenerate() (ast.Item, error) {
	pos := p.curPos()
	p.advance() // generate
	var items []ast.GenItem
	for !p.at(token.KwEndgenerate) && !p.at(token.EOF) {
		gi, err := p.parseGenItemOrDecl()
		if err != nil {
			return nil, err
		}
		if gi != nil {
			items = append(items, gi)
		}
	}
	if _, err := p.expect(token.KwEndgenerate, "'endgenerate'"); err != nil {
		return nil, err
	}
	var body ast.GenItem
	switch len(items) {
	case 1:
		body = items[0]
	default:
		body = ast.GenSeq{GenItemPos: ast.GenItemPos{Pos: pos}, Items: items}
	}
	return ast.Generate{ItemPos: ast.ItemPos{Pos: pos}, Item: body}, nil
}

func (p *Parser) parseGenItemOrDecl() (ast.GenItem, error) {
	switch p.cur().Kind {
	case token.KwFor:
		return p.parseGenFor()
	case token.KwIf:
		return p.parseGenIf()
	case token.KwCase:
		return p.parseGenCase()
	case token.KwBegin:
		return p.parseGenBlock()
	default:
		return nil, errors.Errorf("%s: unexpected token %q in generate block", p.cur().Pos, p.cur().Text)
	}
}

func (p *Parser) parseGenBlock() (ast.GenItem, error) {
	pos := p.curPos()
	p.advance() // begin
	label := ""
	if p.at(token.Colon) {
		p.advance()
		name, err := p.expect(token.Ident, "block label")
		if err != nil {
			return nil, err
		}
		label = name.Text
	}
	var items []ast.Item
	for !p.at(token.KwEnd) && !p.at(token.EOF) {
		item, err := p.parseModuleItem()
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	if _, err := p.expect(token.KwEnd, "'end'"); err != nil {
		return nil, err
	}
	return ast.GenBlock{GenItemPos: ast.GenItemPos{Pos: pos}, Label: label, Items: items}, nil
}

func (p *Parser) parseGenFor() (ast.GenItem, error) {
	pos := p.curPos()
	p.advance() // for
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	init, err := p.parseSimpleAssignExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	step, err := p.parseSimpleAssignExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	genvar, ok := genvarOf(init)
	if !ok {
		return nil, errors.Errorf("%s: generate for: init is not 'genvar = expr'", pos)
	}
	body, err := p.parseGenItemOrDecl()
	if err != nil {
		return nil, err
	}
	return ast.GenFor{GenItemPos: ast.GenItemPos{Pos: pos}, Genvar: genvar, Init: init, Cond: cond, Step: step, Body: body}, nil
}

// parseSimpleAssignExpr parses `ident = expr` as a Binary("=", ref, expr)
// placeholder, reused for generate-for init/step clauses; the elaborator
// inspects its shape directly rather than treating it as a statement.
func (p *Parser) parseSimpleAssignExpr() (ast.Expr, error) {
	pos := p.curPos()
	name, err := p.expect(token.Ident, "genvar")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Binary{ExprPos: ast.ExprPos{Pos: pos}, Op: "=", LHS: ast.Ref{ExprPos: ast.ExprPos{Pos: pos}, Name: name.Text}, RHS: rhs}, nil
}

func genvarOf(e ast.Expr) (string, bool) {
	b, ok := e.(ast.Binary)
	if !ok || b.Op != "=" {
		return "", false
	}
	r, ok := b.LHS.(ast.Ref)
	if !ok {
		return "", false
	}
	return r.Name, true
}

func (p *Parser) parseGenIf() (ast.GenItem, error) {
	pos := p.curPos()
	p.advance() // if
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseGenItemOrDecl()
	if err != nil {
		return nil, err
	}
	var els ast.GenItem
	if p.at(token.KwElse) {
		p.advance()
		els, err = p.parseGenItemOrDecl()
		if err != nil {
			return nil, err
		}
	}
	return ast.GenIf{GenItemPos: ast.GenItemPos{Pos: pos}, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseGenCase() (ast.GenItem, error) {
	pos := p.curPos()
	p.advance() // case
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	sel, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	var branches []ast.GenCaseBranch
	for !p.at(token.KwEndcase) && !p.at(token.EOF) {
		if p.at(token.KwDefault) {
			p.advance()
			if p.at(token.Colon) {
				p.advance()
			}
			item, err := p.parseGenItemOrDecl()
			if err != nil {
				return nil, err
			}
			branches = append(branches, ast.GenCaseBranch{Item: item, Default: true})
			continue
		}
		var matches []ast.Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			matches = append(matches, e)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Colon, "':'"); err != nil {
			return nil, err
		}
		item, err := p.parseGenItemOrDecl()
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.GenCaseBranch{Matches: matches, Item: item})
	}
	if _, err := p.expect(token.KwEndcase, "'endcase'"); err != nil {
		return nil, err
	}
	return ast.GenCase{GenItemPos: ast.GenItemPos{Pos: pos}, Expr: sel, Branches: branches}, nil
}

func (p *Parser) parseInstance() (ast.Item, error) {
	pos := p.curPos()
	modName, err := p.expect(token.Ident, "module name")
	if err != nil {
		return nil, err
	}
	inst := ast.Instance{ItemPos: ast.ItemPos{Pos: pos}, Module: modName.Text}

	if p.at(token.Hash) {
		p.advance()
		if _, err := p.expect(token.LParen, "'('"); err != nil {
			return nil, err
		}
		for !p.at(token.RParen) {
			if _, err := p.expect(token.Dot, "'.'"); err != nil {
				return nil, err
			}
			pname, err := p.expect(token.Ident, "parameter name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.LParen, "'('"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen, "')'"); err != nil {
				return nil, err
			}
			inst.ParamOverrides = append(inst.ParamOverrides, ast.ParamConn{Name: pname.Text, Value: val})
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
	}

	instName, err := p.expect(token.Ident, "instance name")
	if err != nil {
		return nil, err
	}
	inst.InstanceName = instName.Text

	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	for !p.at(token.RParen) {
		var conn ast.PortConn
		if p.at(token.Dot) {
			p.advance()
			pname, err := p.expect(token.Ident, "port name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.LParen, "'('"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen, "')'"); err != nil {
				return nil, err
			}
			conn = ast.PortConn{Name: pname.Text, Expr: val}
		} else {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			conn = ast.PortConn{Expr: val}
		}
		inst.Ports = append(inst.Ports, conn)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	return inst, nil
}

// --- statements ---

func (p *Parser) parseStmt() (ast.Stmt, error) {
	pos := p.curPos()
	switch p.cur().Kind {
	case token.Semi:
		p.advance()
		return ast.Null{StmtPos: ast.StmtPos{Pos: pos}}, nil
	case token.KwBegin:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwCase, token.KwCasez, token.KwCasex:
		return p.parseCase()
	case token.Hash:
		return p.parseDelay()
	case token.KwFinish:
		p.advance()
		if _, err := p.expect(token.Semi, "';'"); err != nil {
			return nil, err
		}
		return ast.ExprStmt{StmtPos: ast.StmtPos{Pos: pos}, Finish: true}, nil
	default:
		return p.parseAssignOrExprStmt()
	}
}

func (p *Parser) parseBlock() (ast.Stmt, error) {
	pos := p.curPos()
	p.advance() // begin
	label := ""
	if p.at(token.Colon) {
		p.advance()
		name, err := p.expect(token.Ident, "block label")
		if err != nil {
			return nil, err
		}
		label = name.Text
	}
	var stmts []ast.Stmt
	for !p.at(token.KwEnd) && !p.at(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.KwEnd, "'end'"); err != nil {
		return nil, err
	}
	return ast.Block{StmtPos: ast.StmtPos{Pos: pos}, Label: label, Stmts: stmts}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.curPos()
	p.advance()
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.at(token.KwElse) {
		p.advance()
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return ast.If{StmtPos: ast.StmtPos{Pos: pos}, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseCase() (ast.Stmt, error) {
	pos := p.curPos()
	kind := ast.CaseEq
	switch p.cur().Kind {
	case token.KwCasez:
		kind = ast.CaseZ
	case token.KwCasex:
		kind = ast.CaseX
	}
	p.advance()
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	sel, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	var branches []ast.CaseBranch
	for !p.at(token.KwEndcase) && !p.at(token.EOF) {
		if p.at(token.KwDefault) {
			p.advance()
			if p.at(token.Colon) {
				p.advance()
			}
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			branches = append(branches, ast.CaseBranch{Stmt: s, Default: true})
			continue
		}
		var matches []ast.Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			matches = append(matches, e)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Colon, "':'"); err != nil {
			return nil, err
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.CaseBranch{Matches: matches, Stmt: s})
	}
	if _, err := p.expect(token.KwEndcase, "'endcase'"); err != nil {
		return nil, err
	}
	return ast.Case{StmtPos: ast.StmtPos{Pos: pos}, Kind: kind, Expr: sel, Branches: branches}, nil
}

func (p *Parser) parseDelay() (ast.Stmt, error) {
	pos := p.curPos()
	p.advance() // #
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	s, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.Delay{StmtPos: ast.StmtPos{Pos: pos}, Expr: e, Stmt: s}, nil
}

func (p *Parser) parseAssignOrExprStmt() (ast.Stmt, error) {
	pos := p.curPos()
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case token.Assign:
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi, "';'"); err != nil {
			return nil, err
		}
		return ast.BlockingAssign{StmtPos: ast.StmtPos{Pos: pos}, LHS: lhs, RHS: rhs}, nil
	case token.NonBlocking:
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi, "';'"); err != nil {
			return nil, err
		}
		return ast.NonBlockingAssign{StmtPos: ast.StmtPos{Pos: pos}, LHS: lhs, RHS: rhs}, nil
	default:
		if _, err := p.expect(token.Semi, "';'"); err != nil {
			return nil, err
		}
		return ast.ExprStmt{StmtPos: ast.StmtPos{Pos: pos}, Expr: lhs}, nil
	}
}

// --- expressions (precedence climbing) ---

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseTernary() }

func (p *Parser) parseTernary() (ast.Expr, error) {
	pos := p.curPos()
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Question) {
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, "':'"); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Ternary{ExprPos: ast.ExprPos{Pos: pos}, Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

type binLevel struct {
	kinds map[token.Kind]string
	next  func(*Parser) (ast.Expr, error)
}

func (p *Parser) parseBinLevel(lvl binLevel) (ast.Expr, error) {
	pos := p.curPos()
	lhs, err := lvl.next(p)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := lvl.kinds[p.cur().Kind]
		if !ok {
			return lhs, nil
		}
		p.advance()
		rhs, err := lvl.next(p)
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{ExprPos: ast.ExprPos{Pos: pos}, Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.PipePipe: "||"}, (*Parser).parseLogicalAnd})
}
func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.AmpAmp: "&&"}, (*Parser).parseBitOr})
}
func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.Pipe: "|"}, (*Parser).parseBitXor})
}
func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.Caret: "^", token.TildeCaret: "~^"}, (*Parser).parseBitAnd})
}
func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.Amp: "&"}, (*Parser).parseEquality})
}
func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{
		token.EqEq: "==", token.NotEq: "!=", token.CaseEqOp: "===", token.CaseNeqOp: "!==",
	}, (*Parser).parseRelational})
}
func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{
		token.Lt: "<", token.LtEq: "<=", token.Gt: ">", token.GtEq: ">=",
	}, (*Parser).parseShift})
}
func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.Shl: "<<", token.Shr: ">>"}, (*Parser).parseAdditive})
}
func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.PlusOp: "+", token.MinusOp: "-"}, (*Parser).parseMultiplicative})
}
func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinLevel(binLevel{map[token.Kind]string{token.Star: "*"}, (*Parser).parseUnary})
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	pos := p.curPos()
	switch p.cur().Kind {
	case token.PlusOp, token.MinusOp, token.Bang, token.Tilde:
		op := p.cur().Text
		if op == "" {
			switch p.cur().Kind {
			case token.PlusOp:
				op = "+"
			case token.MinusOp:
				op = "-"
			case token.Bang:
				op = "!"
			case token.Tilde:
				op = "~"
			}
		}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{ExprPos: ast.ExprPos{Pos: pos}, Op: op, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	pos := p.curPos()
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(token.LBracket) {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBracket, "']'"); err != nil {
			return nil, err
		}
		base = ast.BitSelect{ExprPos: ast.ExprPos{Pos: pos}, Base: base, Index: idx}
	}
	return base, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.curPos()
	switch p.cur().Kind {
	case token.Ident:
		t := p.advance()
		return ast.Ref{ExprPos: ast.ExprPos{Pos: pos}, Name: t.Text}, nil
	case token.Number:
		t := p.advance()
		return ast.Number{ExprPos: ast.ExprPos{Pos: pos}, Literal: t.Text}, nil
	case token.StringLit:
		t := p.advance()
		return ast.Str{ExprPos: ast.ExprPos{Pos: pos}, Value: t.Text}, nil
	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBrace:
		return p.parseBraceExpr()
	default:
		return nil, errors.Errorf("%s: unexpected token %q in expression", p.cur().Pos, p.cur().Text)
	}
}

// parseBraceExpr parses `{a, b, c}` as Concat or `{count{a,b}}` as
// Replication, disambiguated by whether the first element is itself
// followed directly by a nested `{`.
func (p *Parser) parseBraceExpr() (ast.Expr, error) {
	pos := p.curPos()
	p.advance() // {
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(token.LBrace) {
		p.advance()
		var elems []ast.Expr
		for !p.at(token.RBrace) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBrace, "'}'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBrace, "'}'"); err != nil {
			return nil, err
		}
		return ast.Replication{ExprPos: ast.ExprPos{Pos: pos}, Count: first, Elems: elems}, nil
	}
	elems := []ast.Expr{first}
	for p.at(token.Comma) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return ast.Concat{ExprPos: ast.ExprPos{Pos: pos}, Elems: elems}, nil
}
