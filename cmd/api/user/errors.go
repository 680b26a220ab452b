package user

import (
	"github.com/book-network/cmd/api/pkgerrors"
)

type ErrResponse = pkgerrors.ErrResponse

var ErrResponseRegistrationBlankFirstName = ErrResponse{Code: 300, Message: "field 'firstname' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseRegistrationBlankLastName = ErrResponse{Code: 301, Message: "field 'lastname' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseRegistrationInvalidEmail = ErrResponse{Code: 302, Message: "field 'email' must be a valid email address.", Kind: pkgerrors.KindValidation}
var ErrResponseRegistrationShortPassword = ErrResponse{Code: 303, Message: "field 'password' must have at least 8 characters.", Kind: pkgerrors.KindValidation}
var ErrResponseActivationTokenBlank = ErrResponse{Code: 304, Message: "query parameter 'token' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseActivationTokenExpired = ErrResponse{Code: 305, Message: "activation token has expired. A new token has been sent.", Kind: pkgerrors.KindValidation}
var ErrResponseActivationTokenUsed = ErrResponse{Code: 306, Message: "activation token was already used.", Kind: pkgerrors.KindValidation}

var ErrResponseBadCredentials = ErrResponse{Code: 400, Message: "email or password is incorrect", Kind: pkgerrors.KindUnauthorized}
var ErrResponseAccountDisabled = ErrResponse{Code: 401, Message: "account is not activated", Kind: pkgerrors.KindUnauthorized}
var ErrResponseAccountLocked = ErrResponse{Code: 402, Message: "account is locked", Kind: pkgerrors.KindUnauthorized}

var ErrResponseUserNotFound = ErrResponse{Code: 603, Message: "user not found", Kind: pkgerrors.KindNotFound}
var ErrResponseTokenNotFound = ErrResponse{Code: 604, Message: "activation token not found", Kind: pkgerrors.KindNotFound}
var ErrResponseRoleNotFound = ErrResponse{Code: 605, Message: "role not found", Kind: pkgerrors.KindNotFound}

var ErrResponseEmailTaken = ErrResponse{Code: 700, Message: "there is already an account with this email.", Kind: pkgerrors.KindConflict}
