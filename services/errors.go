package services

import (
	"errors"
	"fmt"
)

// Categorias de erro do core contábil. Toda operação rejeitada retorna um
// erro de uma das categorias abaixo sem alterar estado algum; handlers e
// testes classificam com errors.Is.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrCompliance        = errors.New("conta não verificada ou na blacklist")
	ErrAuthorization     = errors.New("operação não autorizada")
	ErrPoolState         = errors.New("estado do pool não permite a operação")
	ErrInsufficientFunds = errors.New("pagamento abaixo do custo total")
	ErrNotFound          = errors.New("registro não encontrado")
)

// Erros específicos, embrulhando a categoria correspondente.
var (
	ErrAccountNotFound  = fmt.Errorf("%w: conta", ErrNotFound)
	ErrPropertyNotFound = fmt.Errorf("%w: imóvel", ErrNotFound)
	ErrDividendNotFound = fmt.Errorf("%w: distribuição de dividendo", ErrNotFound)

	ErrValueTooSmall = fmt.Errorf("%w: valor do imóvel não compra um token sequer", ErrValidation)

	ErrPoolInactive           = fmt.Errorf("%w: pool inativo", ErrPoolState)
	ErrPoolInsufficientSupply = fmt.Errorf("%w: oferta restante insuficiente", ErrPoolState)
	ErrPoolExhausted          = fmt.Errorf("%w: pool esgotado não pode ser reaberto", ErrPoolState)

	ErrNothingToWithdraw = errors.New("nenhum saldo pendente a sacar")

	ErrNoTokensSold       = errors.New("imóvel ainda não vendeu tokens")
	ErrDividendTooSmall   = fmt.Errorf("%w: valor por token arredonda para zero", ErrValidation)
	ErrAlreadyClaimed     = errors.New("dividendo já reivindicado por esta conta")
	ErrNoTokensOwned      = errors.New("conta não possui tokens deste imóvel")
	ErrNoDividendsToClaim = errors.New("nenhum dividendo a reivindicar")
)
