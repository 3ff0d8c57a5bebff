package game

// Dimensões do campo usadas pelo cliente (1152x864). A bola nasce no centro.
const (
	FieldWidth  = 1152
	FieldHeight = 864
)

// Ball é a posição e velocidade da bola, como reportadas pelo papel autoritativo.
type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Paddle guarda apenas a coordenada vertical.
type Paddle struct {
	Y float64 `json:"y"`
}

// State é o estado autoritativo de uma sala. Só é alterado pelas operações da sala.
type State struct {
	Ball    Ball            `json:"ball"`
	Paddles map[Role]Paddle `json:"paddles"`
	Scores  map[Role]int    `json:"scores"`
}

// NewState devolve o estado inicial: bola parada no centro, raquetes em 0 e placar zerado.
func NewState() State {
	s := State{
		Ball:    Ball{X: FieldWidth / 2, Y: FieldHeight / 2},
		Paddles: make(map[Role]Paddle, len(Roles)),
		Scores:  make(map[Role]int, len(Roles)),
	}
	for _, r := range Roles {
		s.Paddles[r] = Paddle{}
		s.Scores[r] = 0
	}
	return s
}

// Clone faz uma cópia profunda, segura para enviar fora do lock da sala.
func (s State) Clone() State {
	c := State{
		Ball:    s.Ball,
		Paddles: make(map[Role]Paddle, len(s.Paddles)),
		Scores:  make(map[Role]int, len(s.Scores)),
	}
	for r, p := range s.Paddles {
		c.Paddles[r] = p
	}
	for r, v := range s.Scores {
		c.Scores[r] = v
	}
	return c
}

// CloneScores copia apenas o placar.
func (s State) CloneScores() map[Role]int {
	c := make(map[Role]int, len(s.Scores))
	for r, v := range s.Scores {
		c[r] = v
	}
	return c
}
