package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/nihei9/earley/grammar/symbol"
)

type productionID [32]byte

func (id productionID) String() string {
	return hex.EncodeToString(id[:])
}

func genProductionID(lhs symbol.Symbol, rhs []symbol.Symbol) productionID {
	seq := make([]byte, 0, (len(rhs)+1)*2)
	seq = binary.BigEndian.AppendUint16(seq, uint16(lhs))
	for _, sym := range rhs {
		seq = binary.BigEndian.AppendUint16(seq, uint16(sym))
	}
	return productionID(sha256.Sum256(seq))
}

type ProductionNum uint16

const (
	ProductionNumNil = ProductionNum(0)
	productionNumMin = ProductionNum(1)
)

func (n ProductionNum) Int() int {
	return int(n)
}

// Production is a rule `LHS → RHS`. An empty RHS means the LHS derives the empty string.
type Production struct {
	id  productionID
	num ProductionNum
	lhs symbol.Symbol
	rhs []symbol.Symbol
}

func newProduction(lhs symbol.Symbol, rhs []symbol.Symbol) (*Production, error) {
	if lhs.IsNil() {
		return nil, fmt.Errorf("LHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	if !lhs.IsNonTerminal() {
		return nil, fmt.Errorf("LHS must be a non-terminal symbol; LHS: %v, RHS: %v", lhs, rhs)
	}
	for _, sym := range rhs {
		if sym.IsNil() {
			return nil, fmt.Errorf("a symbol of RHS must be a non-nil symbol; LHS: %v, RHS: %v", lhs, rhs)
		}
	}

	return &Production{
		id:  genProductionID(lhs, rhs),
		lhs: lhs,
		rhs: rhs,
	}, nil
}

// Num returns the number of the production. Numbers follow the order in which productions were defined.
func (p *Production) Num() ProductionNum {
	return p.num
}

func (p *Production) LHS() symbol.Symbol {
	return p.lhs
}

// RHS returns the right-hand side. Callers must not modify the returned slice.
func (p *Production) RHS() []symbol.Symbol {
	return p.rhs
}

func (p *Production) IsEmpty() bool {
	return len(p.rhs) == 0
}

type productionSet struct {
	lhs2Prods map[symbol.Symbol][]*Production
	id2Prod   map[productionID]*Production
	prods     []*Production
	num       ProductionNum
}

func newProductionSet() *productionSet {
	return &productionSet{
		lhs2Prods: map[symbol.Symbol][]*Production{},
		id2Prod:   map[productionID]*Production{},
		num:       productionNumMin,
	}
}

// append adds a production to the set. It returns false when the set already has the same production.
func (ps *productionSet) append(prod *Production) bool {
	if _, ok := ps.id2Prod[prod.id]; ok {
		return false
	}

	prod.num = ps.num
	ps.num++

	ps.lhs2Prods[prod.lhs] = append(ps.lhs2Prods[prod.lhs], prod)
	ps.id2Prod[prod.id] = prod
	ps.prods = append(ps.prods, prod)

	return true
}

func (ps *productionSet) findByID(id productionID) (*Production, bool) {
	prod, ok := ps.id2Prod[id]
	return prod, ok
}

func (ps *productionSet) findByLHS(lhs symbol.Symbol) ([]*Production, bool) {
	if lhs.IsNil() {
		return nil, false
	}

	prods, ok := ps.lhs2Prods[lhs]
	return prods, ok
}

// all returns the productions in definition order.
func (ps *productionSet) all() []*Production {
	return ps.prods
}
