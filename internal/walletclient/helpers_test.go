package walletclient_test

import "github.com/radieske/bingo-wallet/internal/wallet-service/transfer"

func transferInput(from, to string, cents int64) transfer.RequestInput {
	return transfer.RequestInput{FromOwnerID: from, ToOwnerID: to, AmountCents: cents, Reason: "test"}
}
