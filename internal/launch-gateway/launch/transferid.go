package launch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTransferID gera o id de transferência de uma tentativa de launch.
// Precisa ser único por tentativa: o provider deduplica por ele, então
// colisão fundiria dois launches distintos. Timestamp em milissegundos
// mais um fragmento de UUID cobre gerações em sequência rápida.
func NewTransferID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
