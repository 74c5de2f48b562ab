/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthcard

//go:generate mockgen -destination interfaces_mocks_test.go -package healthcard_test -source=interfaces.go

import (
	"context"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
	"github.com/trustbloc/shc-go/jws"
	"github.com/trustbloc/shc-go/keyset"
	"github.com/trustbloc/shc-go/trust"
)

type keySetResolver interface {
	Resolve(ctx context.Context, issuer string) (*keyset.KeySet, error)
}

type proofChecker interface {
	CheckJWSProof(s *jws.SignedStructure, headers jws.Header, key *pubkey.PublicKey) (bool, error)
}

type issuerDirectory interface {
	Lookup(iss string) (trust.Issuer, bool)
}
