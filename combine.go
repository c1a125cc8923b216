package envgate

import "maps"

// schemas holds the effective validation schema of each execution context.
type schemas struct {
	server Group // server ∪ shared ∪ client
	client Group // client ∪ shared
}

// merge unions groups into a new Group. Later groups win on key collision.
func merge(groups ...Group) Group {
	out := make(Group)
	for _, g := range groups {
		maps.Copy(out, g)
	}
	return out
}

// combine builds the server and client schemas from the declared groups.
// The server may read client-exposed values, so its schema includes them.
func combine(server, client, shared Group) schemas {
	return schemas{
		server: merge(server, shared, client),
		client: merge(client, shared),
	}
}

func (s schemas) forContext(ctx Context) Group {
	if ctx == Client {
		return s.client
	}
	return s.server
}
