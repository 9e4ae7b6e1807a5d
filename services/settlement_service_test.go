package services

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVerifyStableLegs confere que só transações pagando exatamente as
// pernas esperadas passam: qualquer adulteração de valor, destino ou
// quantidade de instruções rejeita a cobrança.
func TestVerifyStableLegs(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	platform := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()

	fromATA, _, err := solana.FindAssociatedTokenAddress(buyer, mint)
	require.NoError(t, err)
	ownerATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	platformATA, _, err := solana.FindAssociatedTokenAddress(platform, mint)
	require.NoError(t, err)

	legs := []StableLeg{
		{ToPubKey: owner.String(), Amount: 975},
		{ToPubKey: platform.String(), Amount: 25},
	}

	build := func(instructions ...solana.Instruction) *solana.Transaction {
		tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(payer))
		require.NoError(t, err)
		return tx
	}
	transfer := func(amount uint64, toATA solana.PublicKey) solana.Instruction {
		return token.NewTransferInstruction(amount, fromATA, toATA, buyer, nil).Build()
	}

	// Transação conforme.
	tx := build(transfer(975, ownerATA), transfer(25, platformATA))
	assert.NoError(t, verifyStableLegs(tx, fromATA, mint, legs))

	// Valor adulterado: paga 1 em vez de 975.
	tx = build(transfer(1, ownerATA), transfer(25, platformATA))
	err = verifyStableLegs(tx, fromATA, mint, legs)
	assert.ErrorIs(t, err, ErrValidation)

	// Destino adulterado: comprador pagando a si mesmo.
	tx = build(transfer(975, fromATA), transfer(25, platformATA))
	assert.ErrorIs(t, verifyStableLegs(tx, fromATA, mint, legs), ErrValidation)

	// Perna faltando.
	tx = build(transfer(975, ownerATA))
	assert.ErrorIs(t, verifyStableLegs(tx, fromATA, mint, legs), ErrValidation)

	// Instrução de outro programa no lugar da transferência SPL.
	tx = build(
		system.NewTransferInstruction(975, buyer, owner).Build(),
		transfer(25, platformATA),
	)
	assert.ErrorIs(t, verifyStableLegs(tx, fromATA, mint, legs), ErrValidation)
}
