package book

import (
	"github.com/book-network/cmd/api/pkgerrors"
)

type ErrResponse = pkgerrors.ErrResponse

var ErrResponseBookEntryBlankTitle = ErrResponse{Code: 100, Message: "field 'title' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseBookEntryBlankAuthor = ErrResponse{Code: 101, Message: "field 'author_name' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseBookEntryBlankISBN = ErrResponse{Code: 102, Message: "field 'isbn' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseBookEntryBlankSynopsis = ErrResponse{Code: 103, Message: "field 'synopsis' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseCoverInvalid = ErrResponse{Code: 107, Message: "a non empty multipart field 'file' is required.", Kind: pkgerrors.KindValidation}

var ErrResponseFeedbackBlankNote = ErrResponse{Code: 200, Message: "field 'note' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseFeedbackNoteTooLow = ErrResponse{Code: 201, Message: "field 'note' must be greater than or equal to 0.", Kind: pkgerrors.KindValidation}
var ErrResponseFeedbackNoteTooHigh = ErrResponse{Code: 202, Message: "field 'note' must be less than or equal to 5.", Kind: pkgerrors.KindValidation}
var ErrResponseFeedbackBlankComment = ErrResponse{Code: 203, Message: "field 'comment' must be filled.", Kind: pkgerrors.KindValidation}
var ErrResponseFeedbackBlankBookID = ErrResponse{Code: 204, Message: "field 'book_id' must be filled.", Kind: pkgerrors.KindValidation}

var ErrResponseNotOwnerShareable = ErrResponse{Code: 500, Message: "you cannot update others books shareable status, because you do not own it", Kind: pkgerrors.KindPermission}
var ErrResponseNotOwnerArchived = ErrResponse{Code: 501, Message: "you cannot update others books archived status, because you do not own it", Kind: pkgerrors.KindPermission}
var ErrResponseBookNotBorrowable = ErrResponse{Code: 502, Message: "the requested book cannot be borrowed, since it is archived or not shareable", Kind: pkgerrors.KindPermission}
var ErrResponseCannotBorrowOwnBook = ErrResponse{Code: 503, Message: "you cannot borrow your own book", Kind: pkgerrors.KindPermission}
var ErrResponseBookAlreadyBorrowed = ErrResponse{Code: 504, Message: "the requested book is already borrowed", Kind: pkgerrors.KindPermission}
var ErrResponseCannotReturnOwnBook = ErrResponse{Code: 505, Message: "you cannot borrow or return your own book", Kind: pkgerrors.KindPermission}
var ErrResponseBookNotBorrowed = ErrResponse{Code: 506, Message: "you did not borrow this book", Kind: pkgerrors.KindPermission}
var ErrResponseNotOwnerApprove = ErrResponse{Code: 507, Message: "you cannot approve the return of a book you do not own", Kind: pkgerrors.KindPermission}
var ErrResponseBookNotReturned = ErrResponse{Code: 508, Message: "the book is not returned yet, you cannot approve its return", Kind: pkgerrors.KindPermission}
var ErrResponseFeedbackNotAllowed = ErrResponse{Code: 509, Message: "you cannot give feedback for an archived or non shareable book", Kind: pkgerrors.KindPermission}
var ErrResponseFeedbackOwnBook = ErrResponse{Code: 510, Message: "you cannot give feedback to your own book", Kind: pkgerrors.KindPermission}
var ErrResponseNotOwnerCover = ErrResponse{Code: 511, Message: "you cannot upload a cover for a book you do not own", Kind: pkgerrors.KindPermission}

var ErrResponseBookNotFound = ErrResponse{Code: 600, Message: "book not found", Kind: pkgerrors.KindNotFound}
var ErrResponseLoanNotFound = ErrResponse{Code: 601, Message: "loan not found", Kind: pkgerrors.KindNotFound}
var ErrResponseCoverNotFound = ErrResponse{Code: 602, Message: "book has no cover", Kind: pkgerrors.KindNotFound}
