// Package common holds the pieces shared by every feature: the error
// taxonomy returned to the presentation layer and money formatting.
//
// The sentinel texts are in Portuguese: the SPA treats `message` as
// display-ready and shows it to the affiliate verbatim.
package common

import "errors"

// Validation errors. All of these are detected before any mutation,
// so a caller receiving one knows nothing was written.
var (
	// ErrUnauthorized means the caller could not be resolved to an affiliate record.
	ErrUnauthorized = errors.New("usuário não é um afiliado cadastrado")
	// ErrInvalidAmount means the amount is missing, zero or negative.
	ErrInvalidAmount = errors.New("o valor informado deve ser maior que zero")
	// ErrMissingInvoice means a withdrawal was requested without an invoice reference.
	ErrMissingInvoice = errors.New("envie a nota fiscal antes de solicitar o saque")
	// ErrInsufficientBalance means the withdrawal exceeds the available balance.
	ErrInsufficientBalance = errors.New("saldo insuficiente para o saque solicitado")
)

// Missing-record errors. Repositories map pgx.ErrNoRows to one of these so
// callers can tell true absence apart from a store failure with errors.Is.
var (
	// ErrAffiliateNotFound: no affiliate row for the given id, user or code.
	ErrAffiliateNotFound = errors.New("afiliado não encontrado")
	// ErrReferralNotFound: the referral id does not exist.
	ErrReferralNotFound = errors.New("indicação não encontrada")
	// ErrPlanNotFound: the plan id does not exist or is inactive.
	ErrPlanNotFound = errors.New("plano não encontrado")
	// ErrTransactionNotFound: the ledger transaction id does not exist.
	ErrTransactionNotFound = errors.New("transação não encontrada")
)

// Enrollment errors.
var (
	// ErrAlreadyAffiliate means the user already has an affiliate record.
	ErrAlreadyAffiliate = errors.New("este usuário já participa do programa de afiliados")
	// ErrAlreadyReferred means the referred user is already linked to an affiliate.
	ErrAlreadyReferred = errors.New("este usuário já foi indicado por outro afiliado")
	// ErrCodeGenerationExhausted means no free referral code was found within
	// the configured number of attempts.
	ErrCodeGenerationExhausted = errors.New("não foi possível gerar um código de indicação, tente novamente")
)

// Ledger errors.
var (
	// ErrPlanWithoutCommission means the referred user's plan has no positive
	// price, so there is no commission to record.
	ErrPlanWithoutCommission = errors.New("o plano informado não gera comissão")
	// ErrCommissionAlreadyRecorded enforces at most one commission per
	// referred user per calendar month. The batch recorder skips silently;
	// the single-record entry point surfaces this instead.
	ErrCommissionAlreadyRecorded = errors.New("a comissão deste usuário já foi registrada neste mês")
	// ErrInconsistency means a multi-step ledger operation partially
	// completed: the transaction row was written but the balance leg failed.
	// Call sites log affiliate id, transaction id and delta before returning
	// this so the ledger can be reconciled by hand.
	ErrInconsistency = errors.New("operação parcialmente concluída, o suporte foi notificado")
	// ErrWithdrawalNotPending rejects completion of a withdrawal that is not
	// in pending state (already completed, or not a withdrawal at all).
	ErrWithdrawalNotPending = errors.New("o saque não está pendente")
)
