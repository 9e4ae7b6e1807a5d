package settlement_listener

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	log "github.com/sirupsen/logrus"
)

// SettlementListener acompanha na Solana as transações que mencionam a
// tesouraria (payouts de saques e dividendos, cobranças no ativo estável)
// e registra as finalizações. Transações que falham depois de enviadas são
// logadas para reconciliação manual.
type SettlementListener struct {
	RPCClient *rpc.Client
	WSClient  *ws.Client
	Treasury  solana.PublicKey
}

// NewSettlementListener conecta os clientes RPC e WebSocket.
func NewSettlementListener(rpcEndpoint, wsEndpoint string, treasury solana.PublicKey) (*SettlementListener, error) {
	wsClient, err := ws.Connect(context.Background(), wsEndpoint)
	if err != nil {
		return nil, err
	}
	return &SettlementListener{
		RPCClient: rpc.New(rpcEndpoint),
		WSClient:  wsClient,
		Treasury:  treasury,
	}, nil
}

// StartListening escuta as transações da tesouraria até o contexto encerrar.
func (l *SettlementListener) StartListening(ctx context.Context) {
	log.Info("Iniciando listener de liquidações...")

	sub, err := l.WSClient.LogsSubscribeMentions(l.Treasury, rpc.CommitmentFinalized)
	if err != nil {
		log.Errorf("Falha ao subscrever às transações da tesouraria: %v", err)
		return
	}
	defer sub.Unsubscribe()

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("Erro ao receber notificação de transação: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		if got.Value.Err != nil {
			// O core já recredita a fila quando o envio síncrono falha;
			// isto cobre o caso raro de uma transação aceita pela rede que
			// falha na finalização.
			log.WithField("tx", got.Value.Signature.String()).
				Warnf("Transação de liquidação falhou após envio; reconciliar manualmente: %v", got.Value.Err)
			continue
		}
		log.WithField("tx", got.Value.Signature.String()).Info("Liquidação finalizada.")
	}
}
