package services

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

// StableLeg é uma perna de pagamento no ativo estável: destino e valor.
type StableLeg struct {
	ToPubKey string
	Amount   int64
}

// Settlement abstrai a trilha de liquidação externa. O core só chama esses
// métodos como último passo de uma operação, depois de todas as mutações
// do ledger estarem commitadas.
type Settlement interface {
	// Transfer paga amount (na moeda nativa) da tesouraria para toPubKey.
	Transfer(ctx context.Context, toPubKey string, amount int64) (string, error)
	// PrepareStableTransfer constrói a transação de pagamento no ativo
	// estável para assinatura do comprador. Não move fundos.
	PrepareStableTransfer(ctx context.Context, fromPubKey string, legs []StableLeg) (string, error)
	// SendStablePayment confere que a transação assinada pelo comprador
	// paga exatamente as pernas esperadas e a envia.
	SendStablePayment(ctx context.Context, signedTxBase64, fromPubKey string, legs []StableLeg) (string, error)
}

// SolanaSettlementService implementa Settlement sobre a rede Solana:
// pagamentos nativos em lamports assinados pela tesouraria e transferências
// SPL do ativo estável assinadas pelo comprador.
type SolanaSettlementService struct {
	RPCClient  *rpc.Client
	Treasury   solana.PrivateKey
	StableMint solana.PublicKey
}

// NewSolanaSettlementService cria o serviço de liquidação.
func NewSolanaSettlementService(rpcEndpoint, treasuryKeyBase58, stableMintBase58 string) (*SolanaSettlementService, error) {
	treasury, err := solana.PrivateKeyFromBase58(treasuryKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar chave privada da tesouraria: %w", err)
	}
	stableMint, err := solana.PublicKeyFromBase58(stableMintBase58)
	if err != nil {
		return nil, fmt.Errorf("endereço de mint do ativo estável inválido: %w", err)
	}
	return &SolanaSettlementService{
		RPCClient:  rpc.New(rpcEndpoint),
		Treasury:   treasury,
		StableMint: stableMint,
	}, nil
}

// Transfer paga lamports da tesouraria para o destinatário.
func (s *SolanaSettlementService) Transfer(ctx context.Context, toPubKey string, amount int64) (string, error) {
	to, err := solana.PublicKeyFromBase58(toPubKey)
	if err != nil {
		return "", fmt.Errorf("chave pública do destinatário inválida: %w", err)
	}

	resp, err := s.RPCClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("falha ao obter blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(uint64(amount), s.Treasury.PublicKey(), to).Build(),
		},
		resp.Value.Blockhash,
		solana.TransactionPayer(s.Treasury.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("falha ao criar transação de pagamento: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.Treasury.PublicKey()) {
			return &s.Treasury
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("falha ao assinar transação de pagamento: %w", err)
	}

	sig, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("falha ao enviar pagamento: %w", err)
	}
	log.WithFields(log.Fields{"to": toPubKey, "amount": amount, "tx": sig.String()}).
		Info("Pagamento nativo enviado.")
	return sig.String(), nil
}

// PrepareStableTransfer constrói uma transação com uma instrução de
// transferência SPL por perna, saindo da ATA do comprador. A tesouraria
// paga a taxa de rede e já assina; o comprador assina no front-end.
func (s *SolanaSettlementService) PrepareStableTransfer(ctx context.Context, fromPubKey string, legs []StableLeg) (string, error) {
	from, err := solana.PublicKeyFromBase58(fromPubKey)
	if err != nil {
		return "", fmt.Errorf("chave pública do comprador inválida: %w", err)
	}
	fromATA, _, err := solana.FindAssociatedTokenAddress(from, s.StableMint)
	if err != nil {
		return "", fmt.Errorf("falha ao encontrar ATA do comprador: %w", err)
	}

	var instructions []solana.Instruction
	for _, leg := range legs {
		to, err := solana.PublicKeyFromBase58(leg.ToPubKey)
		if err != nil {
			return "", fmt.Errorf("chave pública do recebedor inválida: %w", err)
		}
		toATA, _, err := solana.FindAssociatedTokenAddress(to, s.StableMint)
		if err != nil {
			return "", fmt.Errorf("falha ao encontrar ATA do recebedor: %w", err)
		}
		instructions = append(instructions, token.NewTransferInstruction(
			uint64(leg.Amount),
			fromATA,
			toATA,
			from,
			nil,
		).Build())
	}

	resp, err := s.RPCClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("falha ao obter blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		resp.Value.Blockhash,
		solana.TransactionPayer(s.Treasury.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("falha ao criar transação de pagamento estável: %w", err)
	}

	// A tesouraria assina como pagadora da taxa; a assinatura do comprador
	// é colhida no front-end.
	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.Treasury.PublicKey()) {
			return &s.Treasury
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("falha ao assinar transação pela tesouraria: %w", err)
	}

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("falha ao serializar transação: %w", err)
	}
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// SendStablePayment recebe a transação assinada pelo comprador, confere que
// ela paga exatamente as pernas esperadas e a envia para a rede. A
// conferência é obrigatória: os parâmetros da compra vêm do chamador, então
// a transação assinada é a única prova de que o pagamento cobrado confere
// com o que o ledger vai registrar.
func (s *SolanaSettlementService) SendStablePayment(ctx context.Context, signedTxBase64, fromPubKey string, legs []StableLeg) (string, error) {
	from, err := solana.PublicKeyFromBase58(fromPubKey)
	if err != nil {
		return "", fmt.Errorf("chave pública do comprador inválida: %w", err)
	}
	fromATA, _, err := solana.FindAssociatedTokenAddress(from, s.StableMint)
	if err != nil {
		return "", fmt.Errorf("falha ao encontrar ATA do comprador: %w", err)
	}

	signedTxBytes, err := base64.StdEncoding.DecodeString(signedTxBase64)
	if err != nil {
		return "", fmt.Errorf("falha ao decodificar transação assinada: %w", err)
	}
	tx, err := solana.TransactionFromBytes(signedTxBytes)
	if err != nil {
		return "", fmt.Errorf("falha ao deserializar transação: %w", err)
	}
	if err := verifyStableLegs(tx, fromATA, s.StableMint, legs); err != nil {
		return "", err
	}

	sig, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("falha ao enviar transação assinada: %w", err)
	}
	log.WithField("tx", sig.String()).Info("Transação assinada enviada.")
	return sig.String(), nil
}

// spl Token: discriminador da instrução Transfer.
const splTransferInstruction = 3

// verifyStableLegs exige que a transação contenha exatamente uma
// transferência SPL por perna esperada, na ordem, saindo da ATA do
// comprador, para a ATA do destino e com o valor exato. Qualquer
// divergência rejeita a cobrança inteira antes do envio.
func verifyStableLegs(tx *solana.Transaction, fromATA, mint solana.PublicKey, legs []StableLeg) error {
	if len(tx.Message.Instructions) != len(legs) {
		return fmt.Errorf("%w: transação tem %d instruções, esperadas %d",
			ErrValidation, len(tx.Message.Instructions), len(legs))
	}
	keys := tx.Message.AccountKeys
	for i, leg := range legs {
		ix := tx.Message.Instructions[i]
		if int(ix.ProgramIDIndex) >= len(keys) || !keys[ix.ProgramIDIndex].Equals(token.ProgramID) {
			return fmt.Errorf("%w: instrução %d não é do programa SPL Token", ErrValidation, i)
		}
		if len(ix.Data) < 9 || ix.Data[0] != splTransferInstruction {
			return fmt.Errorf("%w: instrução %d não é uma transferência SPL", ErrValidation, i)
		}
		if len(ix.Accounts) < 3 ||
			int(ix.Accounts[0]) >= len(keys) || int(ix.Accounts[1]) >= len(keys) {
			return fmt.Errorf("%w: contas da instrução %d inválidas", ErrValidation, i)
		}

		to, err := solana.PublicKeyFromBase58(leg.ToPubKey)
		if err != nil {
			return fmt.Errorf("chave pública do recebedor inválida: %w", err)
		}
		toATA, _, err := solana.FindAssociatedTokenAddress(to, mint)
		if err != nil {
			return fmt.Errorf("falha ao encontrar ATA do recebedor: %w", err)
		}

		source := keys[ix.Accounts[0]]
		dest := keys[ix.Accounts[1]]
		amount := binary.LittleEndian.Uint64(ix.Data[1:9])
		if !source.Equals(fromATA) || !dest.Equals(toATA) || amount != uint64(leg.Amount) {
			return fmt.Errorf("%w: perna %d da transação não confere com o pagamento esperado", ErrValidation, i)
		}
	}
	return nil
}
