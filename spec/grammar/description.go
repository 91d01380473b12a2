package grammar

type Terminal struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Anonymous bool   `json:"anonymous"`
	Pattern   string `json:"pattern"`
	Literal   bool   `json:"literal"`
	Skip      bool   `json:"skip"`
}

type NonTerminal struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Nullable bool     `json:"nullable"`
	First    []string `json:"first"`
}

// Production refers to symbols by their text, so a reader needs no symbol table.
type Production struct {
	Number int      `json:"number"`
	LHS    string   `json:"lhs"`
	RHS    []string `json:"rhs"`
}

type Warning struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Report describes a grammar as the parser sees it.
type Report struct {
	Name         string         `json:"name"`
	Start        string         `json:"start"`
	Terminals    []*Terminal    `json:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals"`
	Productions  []*Production  `json:"productions"`
	Warnings     []*Warning     `json:"warnings"`
}
