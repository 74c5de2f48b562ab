/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package healthcard_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/shc-go/crypto-ext/pubkey"
	"github.com/trustbloc/shc-go/crypto-ext/testutil"
	"github.com/trustbloc/shc-go/fhir"
	"github.com/trustbloc/shc-go/healthcard"
	"github.com/trustbloc/shc-go/jws"
	"github.com/trustbloc/shc-go/keyset"
	"github.com/trustbloc/shc-go/trust"
)

const testIssuer = "https://issuer.example"

type card struct {
	compact string
	key     *pubkey.PublicKey
	signer  *testutil.ECDSASigner
}

func newCard(t *testing.T, iss string, deflate bool) card {
	t.Helper()

	signer, key, err := testutil.CreateES256("k1")
	require.NoError(t, err)

	return card{
		compact: signCard(t, signer, "k1", testutil.ImmunizationCard(iss), deflate),
		key:     key,
		signer:  signer,
	}
}

func signCard(t *testing.T, signer *testutil.ECDSASigner, kid string, claims map[string]interface{}, deflate bool) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	compact, err := testutil.CompactJWS(signer, map[string]interface{}{"kid": kid}, payload, deflate)
	require.NoError(t, err)

	return compact
}

func keySet(keys ...*pubkey.PublicKey) *keyset.KeySet {
	ks := &keyset.KeySet{Keys: []pubkey.PublicKey{}}

	for _, k := range keys {
		ks.Keys = append(ks.Keys, *k)
	}

	return ks
}

func errorMessages(msgs []healthcard.Message) []healthcard.Message {
	var out []healthcard.Message

	for _, msg := range msgs {
		if msg.Severity == healthcard.SeverityError {
			out = append(out, msg)
		}
	}

	return out
}

func TestModel_VerifySignature(t *testing.T) {
	c := newCard(t, testIssuer, false)

	t.Run("valid signature", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(keySet(c.key), nil).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))
		require.Equal(t, healthcard.StateDecoded, m.State())
		require.Equal(t, healthcard.VerdictNotAttempted, m.Verdict())

		require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
		require.Equal(t, healthcard.StateVerified, m.State())
		require.Empty(t, errorMessages(m.Messages()))
	})

	t.Run("key set fetch times out", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).
			Return(nil, fmt.Errorf("%w: fetch: %w", keyset.ErrKeySetUnavailable, context.DeadlineExceeded)).Times(1)

		checker := NewMockproofChecker(gomock.NewController(t))
		checker.EXPECT().CheckJWSProof(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver), healthcard.WithProofChecker(checker))
		require.NoError(t, m.SetCompact(c.compact))

		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
		require.Equal(t, healthcard.StateVerificationFailed, m.State())

		errs := errorMessages(m.Messages())
		require.Len(t, errs, 1)
		require.Contains(t, errs[0].Text, "key set unavailable")
		require.ErrorIs(t, errs[0].Err, keyset.ErrKeySetUnavailable)
	})

	t.Run("verification is performed once", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(keySet(c.key), nil).Times(1)

		checker := NewMockproofChecker(gomock.NewController(t))
		checker.EXPECT().CheckJWSProof(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver), healthcard.WithProofChecker(checker))
		require.NoError(t, m.SetCompact(c.compact))

		require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
		msgs := m.Messages()

		require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
		require.Equal(t, msgs, m.Messages())
	})

	t.Run("failed verdict is not recomputed", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(nil, keyset.ErrKeySetUnavailable).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))

		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
		require.Len(t, errorMessages(m.Messages()), 1)
	})

	t.Run("concurrent callers share one verification", func(t *testing.T) {
		release := make(chan struct{})

		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).DoAndReturn(
			func(context.Context, string) (*keyset.KeySet, error) {
				<-release

				return keySet(c.key), nil
			}).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))

		var wg sync.WaitGroup

		verdicts := make([]healthcard.Verdict, 8)

		for i := range verdicts {
			wg.Add(1)

			go func() {
				defer wg.Done()

				verdicts[i] = m.VerifySignature(context.Background())
			}()
		}

		require.Eventually(t, func() bool {
			return m.State() == healthcard.StateVerificationPending
		}, time.Second, time.Millisecond)

		close(release)
		wg.Wait()

		for _, v := range verdicts {
			require.Equal(t, healthcard.VerdictValid, v)
		}
	})

	t.Run("result for replaced input is dropped", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})

		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).DoAndReturn(
			func(context.Context, string) (*keyset.KeySet, error) {
				close(started)
				<-release

				return keySet(c.key), nil
			}).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))

		done := make(chan healthcard.Verdict)

		go func() {
			done <- m.VerifySignature(context.Background())
		}()

		<-started

		other := newCard(t, "https://other.example", false)
		require.NoError(t, m.SetCompact(other.compact))

		close(release)

		require.Equal(t, healthcard.VerdictNotAttempted, <-done)
		require.Equal(t, healthcard.VerdictNotAttempted, m.Verdict())
		require.Equal(t, healthcard.StateDecoded, m.State())
		require.Equal(t, "https://other.example", m.Issuer())
		require.Len(t, m.Messages(), 1)
	})

	t.Run("nothing decoded", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Times(0)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))

		errs := errorMessages(m.Messages())
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0].Err, healthcard.ErrNotDecoded)

		require.Error(t, m.SetCompact("not-a-jws"))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
		require.Equal(t, healthcard.StateDecodeFailed, m.State())
	})

	t.Run("claimed issuer differs", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Times(0)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetInput(healthcard.Input{JWS: c.compact, ClaimedIssuer: "https://impostor.example"}))

		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))

		errs := errorMessages(m.Messages())
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0].Err, healthcard.ErrIssuerMismatch)
	})

	t.Run("claimed issuer matches", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(keySet(c.key), nil).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetInput(healthcard.Input{JWS: c.compact, ClaimedIssuer: testIssuer}))
		require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
	})

	t.Run("no key with kid", func(t *testing.T) {
		_, otherKey, err := testutil.CreateES256("k2")
		require.NoError(t, err)

		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(keySet(otherKey), nil).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))

		errs := errorMessages(m.Messages())
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0].Err, keyset.ErrNoMatchingKey)
	})

	t.Run("signed by another key", func(t *testing.T) {
		_, rotated, err := testutil.CreateES256("k1")
		require.NoError(t, err)

		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), testIssuer).Return(keySet(rotated), nil).Times(1)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(c.compact))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))

		errs := errorMessages(m.Messages())
		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0].Err, healthcard.ErrSignatureMismatch)
	})
}

func TestModel_DeflatedCardEndToEnd(t *testing.T) {
	signer, key, err := testutil.CreateES256("k1")
	require.NoError(t, err)

	jwks, err := json.Marshal(keySet(key))
	require.NoError(t, err)

	var fetches atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)

		require.Equal(t, "/creds"+keyset.WellKnownPath, r.URL.Path)
		_, _ = w.Write(jwks)
	}))
	defer srv.Close()

	iss := srv.URL + "/creds"

	m := healthcard.New(healthcard.WithKeySetResolver(keyset.NewResolver(keyset.WithHTTPClient(srv.Client()))))
	require.NoError(t, m.SetCompact(signCard(t, signer, "k1", testutil.ImmunizationCard(iss), true)))

	zip, ok := m.Header()[jws.HeaderCompression]
	require.True(t, ok)
	require.Equal(t, jws.CompressionDeflate, zip)

	require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
	require.Equal(t, healthcard.VerdictValid, m.VerifySignature(context.Background()))
	require.EqualValues(t, 1, fetches.Load())
	require.Len(t, m.Resources(), 3)
}

func TestModel_Decode(t *testing.T) {
	signer, _, err := testutil.CreateES256("k1")
	require.NoError(t, err)

	valid := signCard(t, signer, "k1", testutil.ImmunizationCard(testIssuer), false)
	parts := strings.Split(valid, ".")

	enc := func(s string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name    string
		compact string
		errText string
	}{
		{name: "empty", compact: "", errText: "expected 3 parts"},
		{name: "two segments", compact: parts[0] + "." + parts[1], errText: "expected 3 parts"},
		{name: "padded segment", compact: parts[0] + "=." + parts[1] + "." + parts[2], errText: "header segment"},
		{name: "header not json", compact: enc("not json") + "." + parts[1] + "." + parts[2], errText: "header"},
		{name: "header without kid", compact: enc(`{"alg":"ES256"}`) + "." + parts[1] + "." + parts[2], errText: "kid"},
		{name: "payload not json", compact: parts[0] + "." + enc("not json") + "." + parts[2], errText: "payload"},
		{name: "payload without iss", compact: parts[0] + "." + enc(`{"vc":{}}`) + "." + parts[2], errText: "iss"},
		{
			name:    "deflate header with plain payload",
			compact: enc(`{"alg":"ES256","kid":"k1","zip":"DEF"}`) + "." + parts[1] + "." + parts[2],
			errText: "payload",
		},
		{
			name: "bundle entry of wrong shape",
			compact: parts[0] + "." + enc(`{"iss":"https://issuer.example","vc":{"credentialSubject":{"fhirBundle":`+
				`{"entry":[{"resource":{"resourceType":"Patient","name":"John"}}]}}}}`) + "." + parts[2],
			errText: "fhir bundle",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := healthcard.New()
			require.NoError(t, m.SetCompact(valid))

			decodeErr := m.SetCompact(tc.compact)
			require.ErrorIs(t, decodeErr, healthcard.ErrDecode)
			require.ErrorContains(t, decodeErr, tc.errText)

			require.Equal(t, healthcard.StateDecodeFailed, m.State())
			require.Nil(t, m.Header())
			require.Nil(t, m.Payload())
			require.Nil(t, m.Structure())
			require.Empty(t, m.Resources())
			require.Empty(t, m.Issuer())

			msgs := m.Messages()
			require.Len(t, msgs, 1)
			require.Equal(t, healthcard.SeverityError, msgs[0].Severity)
			require.ErrorIs(t, msgs[0].Err, healthcard.ErrDecode)
		})
	}

	t.Run("segments", func(t *testing.T) {
		m := healthcard.New()
		require.NoError(t, m.SetSegments(parts[0], parts[1], parts[2]))
		require.Equal(t, valid, m.Structure().Compact())
		require.Equal(t, testIssuer, m.Payload().Issuer)

		require.ErrorIs(t, m.SetSegments(parts[0], "", parts[2]), healthcard.ErrDecode)
		require.Nil(t, m.Payload())
	})

	t.Run("reset", func(t *testing.T) {
		m := healthcard.New()
		require.NoError(t, m.SetCompact(valid))

		m.Reset()
		require.Equal(t, healthcard.StateEmpty, m.State())
		require.Empty(t, m.Messages())
		require.Nil(t, m.Payload())
	})

	t.Run("new input clears messages and verdict", func(t *testing.T) {
		resolver := NewMockkeySetResolver(gomock.NewController(t))
		resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, keyset.ErrKeySetUnavailable).Times(2)

		m := healthcard.New(healthcard.WithKeySetResolver(resolver))
		require.NoError(t, m.SetCompact(valid))
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
		require.Len(t, m.Messages(), 2)

		require.NoError(t, m.SetCompact(valid))
		require.Equal(t, healthcard.VerdictNotAttempted, m.Verdict())
		require.Len(t, m.Messages(), 1)
		require.Equal(t, healthcard.VerdictInvalid, m.VerifySignature(context.Background()))
	})
}

func TestModel_Display(t *testing.T) {
	c := newCard(t, testIssuer, false)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	dir := trust.NewDirectory()
	dir.AddIssuer(trust.Issuer{ISS: testIssuer, Name: "Example Health", IsTrusted: true})

	m := healthcard.New(healthcard.WithTrustDirectory(dir), healthcard.WithClock(func() time.Time { return now }))
	require.NoError(t, m.SetCompact(c.compact))

	require.Equal(t, testIssuer, m.Issuer())
	require.True(t, m.IssuerTrusted())
	require.Equal(t, "Example Health", m.IssuerDisplayName())
	require.Equal(t, "Patient, Immunization, and Observation", m.ContentSummary())

	issued, ok := m.IssuedAt()
	require.True(t, ok)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), issued)

	_, ok = m.ExpiresAt()
	require.False(t, ok)
	require.False(t, m.IsExpired())

	require.Equal(t, now, m.Messages()[0].Time)

	t.Run("issuer outside directory", func(t *testing.T) {
		other := healthcard.New(healthcard.WithTrustDirectory(dir))
		require.NoError(t, other.SetCompact(newCard(t, "https://unlisted.example/creds", false).compact))

		require.False(t, other.IssuerTrusted())
		require.Equal(t, "unlisted.example", other.IssuerDisplayName())
	})

	t.Run("directory record not trusted", func(t *testing.T) {
		dirMock := NewMockissuerDirectory(gomock.NewController(t))
		dirMock.EXPECT().Lookup(testIssuer).Return(trust.Issuer{ISS: testIssuer, Name: "Listed"}, true).AnyTimes()

		listed := healthcard.New(healthcard.WithTrustDirectory(dirMock))
		require.NoError(t, listed.SetCompact(c.compact))

		require.False(t, listed.IssuerTrusted())
		require.Equal(t, "Listed", listed.IssuerDisplayName())
	})

	t.Run("expiry", func(t *testing.T) {
		claims := testutil.ImmunizationCard(testIssuer)
		claims["exp"] = now.Add(-time.Hour).Unix()

		expired := healthcard.New(healthcard.WithClock(func() time.Time { return now }))
		require.NoError(t, expired.SetCompact(signCard(t, c.signer, "k1", claims, false)))

		exp, hasExp := expired.ExpiresAt()
		require.True(t, hasExp)
		require.Equal(t, now.Add(-time.Hour), exp)
		require.True(t, expired.IsExpired())
	})

	t.Run("snapshot", func(t *testing.T) {
		r := m.Snapshot()
		require.Equal(t, healthcard.StateDecoded, r.State)
		require.Equal(t, healthcard.VerdictNotAttempted, r.Verdict)
		require.Equal(t, "Example Health", r.IssuerName)
		require.True(t, r.IssuerTrusted)
		require.NotNil(t, r.IssuedAt)
		require.Nil(t, r.ExpiresAt)
		require.Len(t, r.Entries, 3)
		require.Equal(t, fhir.Summary{
			ResourceType: "Patient",
			Title:        "John B. Anyperson",
			Subtitle:     "January 20, 1951",
		}, r.Entries[0])

		b, err := json.Marshal(r)
		require.NoError(t, err)
		require.Contains(t, string(b), `"state":"decoded"`)
		require.Contains(t, string(b), `"verdict":"not-attempted"`)
		require.Contains(t, string(b), `"severity":"info"`)
	})

	t.Run("empty model", func(t *testing.T) {
		r := healthcard.New().Snapshot()
		require.Equal(t, healthcard.StateEmpty, r.State)
		require.Empty(t, r.Issuer)
		require.Empty(t, r.Entries)
	})
}

func TestJWSCharacterCount(t *testing.T) {
	require.Equal(t, 3, healthcard.JWSCharacterCount("shc:/565656"))
	require.Equal(t, 2, healthcard.JWSCharacterCount(" 5656 "))
	require.Zero(t, healthcard.JWSCharacterCount("shc:/"))
}
