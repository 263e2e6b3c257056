package realtime

// State estado de una suscripción.
//
// Transiciones válidas:
//
//	disconnected → connecting → connected
//	connected|connecting → error|timed_out → connecting (reintento con backoff)
//	cualquiera → closed (baja explícita, sin reintentos)
//
// error es terminal solo cuando se agota el presupuesto de reintentos.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateTimedOut
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateTimedOut:
		return "timed_out"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// validTransition tabla de transiciones permitidas. closed es absorbente.
func validTransition(from, to State) bool {
	if from == to {
		return true
	}
	if to == StateClosed {
		return true
	}
	switch from {
	case StateDisconnected:
		return to == StateConnecting
	case StateConnecting:
		return to == StateConnected || to == StateError || to == StateTimedOut
	case StateConnected:
		return to == StateError || to == StateTimedOut
	case StateTimedOut:
		// error aquí es terminal: presupuesto de reintentos agotado tras un timeout
		return to == StateConnecting || to == StateError
	case StateError:
		return to == StateConnecting
	case StateClosed:
		return false
	}
	return false
}
