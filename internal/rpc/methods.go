package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orandlabs/orand/internal/auth"
	"github.com/orandlabs/orand/internal/epoch"
	"github.com/orandlabs/orand/internal/store"
	"github.com/orandlabs/orand/internal/vrf"
)

// handlerErr carries an error out of a method handler with the HTTP status
// and JSON-RPC error code it should be reported as.
type handlerErr struct {
	status  int
	code    string
	message string
	cause   error
}

func badRequest(message string, cause error) *handlerErr {
	return &handlerErr{status: http.StatusBadRequest, code: "BAD_REQUEST", message: message, cause: cause}
}

func notFound(message string) *handlerErr {
	return &handlerErr{status: http.StatusNotFound, code: "NOT_FOUND", message: message}
}

func accessDenied(message string) *handlerErr {
	return &handlerErr{status: http.StatusForbidden, code: "ACCESS_DENIED", message: message}
}

func internalError(message string, cause error) *handlerErr {
	return &handlerErr{status: http.StatusInternalServerError, code: "INTERNAL_SERVER_ERROR", message: message, cause: cause}
}

// storeErrToHandlerErr maps the sentinel errors of SPEC_FULL.md §7 to a
// response; anything unrecognized is an internal error, never swallowed.
func storeErrToHandlerErr(context string, err error) *handlerErr {
	switch {
	case errors.Is(err, store.ErrReceiverUnknown):
		return notFound("receiver not found")
	case errors.Is(err, store.ErrReceiverHasEpochs):
		return accessDenied("receiver has existing epochs, refusing delete")
	case errors.Is(err, store.ErrKeyringNotFound):
		return notFound("user not found")
	case errors.Is(err, store.ErrKeyringExists):
		return badRequest("unable to create user", err)
	case errors.Is(err, store.ErrReceiverExists):
		return badRequest("receiver name or address already in use", err)
	case errors.Is(err, store.ErrDuplicateSeed), errors.Is(err, store.ErrDuplicateOutput), errors.Is(err, store.ErrDuplicateProof):
		return internalError("duplicate randomness value rejected", err)
	case errors.Is(err, store.ErrNonceConflict):
		return internalError("concurrent write conflict, retry", err)
	default:
		return internalError(context, err)
	}
}

type methodSpec struct {
	requiresAuth  bool
	requiresAdmin bool
	handler       func(s *Server, c *gin.Context, claims *auth.Claims, params json.RawMessage) (interface{}, *handlerErr)
}

var methodTable = map[string]methodSpec{
	"orand_getPublicKey":    {requiresAuth: false, handler: (*Server).handleGetPublicKey},
	"orand_getPublicEpoch":  {requiresAuth: true, handler: (*Server).handleGetPublicEpoch},
	"orand_getPrivateEpoch": {requiresAuth: true, handler: (*Server).handleGetPrivateEpoch},
	"orand_newPublicEpoch":  {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleNewPublicEpoch},
	"orand_newPrivateEpoch": {requiresAuth: true, handler: (*Server).handleNewPrivateEpoch},
	"admin_addUser":         {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleAdminAddUser},
	"admin_getUser":         {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleAdminGetUser},
	"admin_addReceiver":     {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleAdminAddReceiver},
	"admin_getReceiver":     {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleAdminGetReceiver},
	"admin_removeReceiver":  {requiresAuth: true, requiresAdmin: true, handler: (*Server).handleAdminRemoveReceiver},
}

func validateNetwork(network int64) *handlerErr {
	if network < 0 {
		return badRequest("network must be a non-negative integer", nil)
	}
	return nil
}

func validateReceiver(receiver string) *handlerErr {
	if !receiverPattern.MatchString(receiver) {
		return badRequest("receiver must match ^0x[a-fA-F0-9]{40}$", nil)
	}
	return nil
}

func validateName(name string) *handlerErr {
	if !namePattern.MatchString(name) {
		return badRequest("name must match ^[a-zA-Z0-9]{3,40}$", nil)
	}
	return nil
}

// epochWire is the on-the-wire shape of a persisted epoch, per SPEC_FULL.md
// §6's proof-encoding rules (hex without 0x prefix, as already produced by
// internal/store and internal/epoch).
type epochWire struct {
	Network        int64  `json:"network"`
	Receiver       string `json:"receiver"`
	Epoch          int64  `json:"epoch"`
	Alpha          string `json:"alpha"`
	Gamma          string `json:"gamma"`
	C              string `json:"c"`
	S              string `json:"s"`
	Y              string `json:"y"`
	WitnessAddress string `json:"witness_address"`
	WitnessGamma   string `json:"witness_gamma"`
	WitnessHash    string `json:"witness_hash"`
	InverseZ       string `json:"inverse_z"`
	SignatureProof string `json:"signature_proof"`
}

func epochFromStore(r *store.Receiver, e *store.Epoch) epochWire {
	return epochWire{
		Network: r.Network, Receiver: r.Address, Epoch: e.Epoch,
		Alpha: e.Alpha, Gamma: e.Gamma, C: e.C, S: e.S, Y: e.Y,
		WitnessAddress: e.WitnessAddress, WitnessGamma: e.WitnessGamma,
		WitnessHash: e.WitnessHash, InverseZ: e.InverseZ, SignatureProof: e.SignatureProof,
	}
}

func epochFromResult(network int64, receiver string, res *epoch.Result) epochWire {
	return epochWire{
		Network: network, Receiver: receiver, Epoch: res.Epoch,
		Alpha: res.Alpha, Gamma: res.Gamma, C: res.C, S: res.S, Y: res.Y,
		WitnessAddress: res.WitnessAddress, WitnessGamma: res.WitnessGamma,
		WitnessHash: res.WitnessHash, InverseZ: res.InverseZ, SignatureProof: res.SignatureProof,
	}
}

// -- orand_getPublicKey ------------------------------------------------------

type getPublicKeyParams struct {
	Name string `json:"name"`
}

func (s *Server) handleGetPublicKey(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p getPublicKeyParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateName(p.Name); herr != nil {
		return nil, herr
	}
	k, err := s.st.GetKeyring(c.Request.Context(), p.Name)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}
	return gin.H{"username": k.Username, "public_key": k.PublicKey, "created_date": k.CreatedAt}, nil
}

// -- orand_getPublicEpoch / orand_getPrivateEpoch ----------------------------

type getEpochParams struct {
	Network  int64  `json:"network"`
	Receiver string `json:"receiver"`
	Epoch    *int64 `json:"epoch"`
}

// getEpoch is shared by the public and private variants; address is
// ZeroAddress for the public chain.
func (s *Server) getEpoch(ctx context.Context, network int64, address string, epochNum *int64) (interface{}, *handlerErr) {
	r, err := s.st.FindReceiverByNetworkAddress(ctx, network, address)
	if err != nil {
		return nil, storeErrToHandlerErr("find receiver", err)
	}

	var e *store.Epoch
	if epochNum == nil {
		e, err = s.st.LatestEpoch(ctx, r.ID)
	} else {
		e, err = s.st.GetEpoch(ctx, r.ID, *epochNum)
	}
	if err != nil {
		return nil, storeErrToHandlerErr("get epoch", err)
	}
	if e == nil {
		return nil, notFound("epoch was not found")
	}
	return epochFromStore(r, e), nil
}

func (s *Server) handleGetPublicEpoch(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p getEpochParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateNetwork(p.Network); herr != nil {
		return nil, herr
	}
	return s.getEpoch(c.Request.Context(), p.Network, ZeroAddress, p.Epoch)
}

func (s *Server) handleGetPrivateEpoch(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p getEpochParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateNetwork(p.Network); herr != nil {
		return nil, herr
	}
	if herr := validateReceiver(p.Receiver); herr != nil {
		return nil, herr
	}
	return s.getEpoch(c.Request.Context(), p.Network, p.Receiver, p.Epoch)
}

// -- orand_newPublicEpoch / orand_newPrivateEpoch ----------------------------

type newEpochParams struct {
	Network  int64  `json:"network"`
	Receiver string `json:"receiver"`
}

func (s *Server) newEpoch(ctx context.Context, c *gin.Context, claims *auth.Claims, network int64, address string) (interface{}, *handlerErr) {
	k, err := s.st.GetKeyring(ctx, claims.User)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}
	kp, err := keyringKeyPair(k)
	if err != nil {
		return nil, internalError("load signing key", err)
	}
	defer kp.Zero()

	res, err := s.ctrl.NewEpoch(ctx, kp, k, network, address)
	if err != nil {
		return nil, storeErrToHandlerErr("new epoch", err)
	}
	return epochFromResult(network, address, res), nil
}

func (s *Server) handleNewPublicEpoch(c *gin.Context, claims *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p struct {
		Network int64 `json:"network"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateNetwork(p.Network); herr != nil {
		return nil, herr
	}
	return s.newEpoch(c.Request.Context(), c, claims, p.Network, ZeroAddress)
}

func (s *Server) handleNewPrivateEpoch(c *gin.Context, claims *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p newEpochParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateNetwork(p.Network); herr != nil {
		return nil, herr
	}
	if herr := validateReceiver(p.Receiver); herr != nil {
		return nil, herr
	}
	if p.Receiver == ZeroAddress && claims.User != s.adminUser {
		return nil, accessDenied("access denied, you do not have ability to create public epoch")
	}
	return s.newEpoch(c.Request.Context(), c, claims, p.Network, p.Receiver)
}

// -- admin_addUser ------------------------------------------------------------

type adminAddUserParams struct {
	Username   string `json:"username"`
	HMACSecret string `json:"hmac_secret"`
}

func (s *Server) handleAdminAddUser(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p adminAddUserParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateName(p.Username); herr != nil {
		return nil, herr
	}
	if p.HMACSecret == "" {
		return nil, badRequest("hmac_secret is required", nil)
	}

	kp, err := vrf.NewKeyPair()
	if err != nil {
		return nil, internalError("generate keypair", err)
	}
	defer kp.Zero()
	skBytes := kp.Secret.Bytes()

	k, err := s.st.CreateKeyring(c.Request.Context(), p.Username, p.HMACSecret, kp.Public.PublicKeyHex(), hex.EncodeToString(skBytes[:]))
	if err != nil {
		return nil, storeErrToHandlerErr("create keyring", err)
	}
	s.log.Info("created keyring", zap.String("username", k.Username))
	return gin.H{"username": k.Username, "public_key": k.PublicKey, "created_date": k.CreatedAt}, nil
}

// -- admin_getUser ------------------------------------------------------------

type adminUserParams struct {
	Username string `json:"username"`
}

func (s *Server) handleAdminGetUser(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p adminUserParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	k, err := s.st.GetKeyring(c.Request.Context(), p.Username)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}
	return gin.H{"username": k.Username, "public_key": k.PublicKey, "created_date": k.CreatedAt}, nil
}

// -- admin_addReceiver --------------------------------------------------------

type adminAddReceiverParams struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Network  int64  `json:"network"`
	Address  string `json:"address"`
}

func (s *Server) handleAdminAddReceiver(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p adminAddReceiverParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	if herr := validateName(p.Name); herr != nil {
		return nil, herr
	}
	if herr := validateNetwork(p.Network); herr != nil {
		return nil, herr
	}
	if herr := validateReceiver(p.Address); herr != nil {
		return nil, herr
	}

	k, err := s.st.GetKeyring(c.Request.Context(), p.Username)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}

	r, err := s.st.CreateReceiver(c.Request.Context(), k.ID, p.Name, p.Network, p.Address)
	if err != nil {
		return nil, storeErrToHandlerErr("create receiver", err)
	}
	return gin.H{"name": r.Name, "network": r.Network, "address": r.Address, "nonce": r.Nonce}, nil
}

// -- admin_getReceiver --------------------------------------------------------

type adminReceiverParams struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (s *Server) handleAdminGetReceiver(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p adminReceiverParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	k, err := s.st.GetKeyring(c.Request.Context(), p.Username)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}
	r, err := s.st.GetReceiver(c.Request.Context(), k.ID, p.Name)
	if err != nil {
		return nil, storeErrToHandlerErr("get receiver", err)
	}
	return gin.H{"name": r.Name, "network": r.Network, "address": r.Address, "nonce": r.Nonce}, nil
}

// -- admin_removeReceiver -----------------------------------------------------

func (s *Server) handleAdminRemoveReceiver(c *gin.Context, _ *auth.Claims, raw json.RawMessage) (interface{}, *handlerErr) {
	var p adminReceiverParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, badRequest("invalid params", err)
	}
	k, err := s.st.GetKeyring(c.Request.Context(), p.Username)
	if err != nil {
		return nil, storeErrToHandlerErr("get keyring", err)
	}
	if err := s.st.DeleteReceiver(c.Request.Context(), k.ID, p.Name); err != nil {
		return nil, storeErrToHandlerErr("remove receiver", err)
	}
	return gin.H{"success": true, "message": "receiver has been removed"}, nil
}
