package server

// Builtins are the methods every stub conductor answers.
type Builtins struct {
	server *Server
}

func NewBuiltins(s *Server) *Builtins {
	return &Builtins{server: s}
}

// Ping answers "pong".
func (b *Builtins) Ping(args map[string]any) (any, error) {
	return "pong", nil
}

// Echo returns the request's "data" field unchanged.
func (b *Builtins) Echo(args map[string]any) (any, error) {
	return args["data"], nil
}

// ListMethods names every method the server answers.
func (b *Builtins) ListMethods(args map[string]any) (any, error) {
	names := b.server.Methods()
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out, nil
}
