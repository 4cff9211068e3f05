package mint

import "strconv"

// SetBaseURI replaces the metadata base URI. Fails once the URI is frozen.
func (e *Engine) SetBaseURI(caller [20]byte, uri string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.baseURIFrozen {
		return ErrPermanentBaseURI
	}
	e.baseURI = uri
	return nil
}

// SetTokenURISuffix replaces the suffix appended after the decimal token id.
func (e *Engine) SetTokenURISuffix(caller [20]byte, suffix string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.tokenURISuffix = suffix
	return nil
}

// FreezeBaseURI latches the base URI permanently. One-way.
func (e *Engine) FreezeBaseURI(caller [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.baseURIFrozen = true
	e.emit(NewPermanentBaseURIEvent())
	return nil
}

// BaseURIFrozen reports whether the base URI latch is set.
func (e *Engine) BaseURIFrozen() bool { return e.baseURIFrozen }

// BaseURI returns the current metadata base URI.
func (e *Engine) BaseURI() string { return e.baseURI }

// TokenURISuffix returns the current token URI suffix.
func (e *Engine) TokenURISuffix() string { return e.tokenURISuffix }

// TokenURI composes base || decimal(id) || suffix for an issued token. An
// empty base URI yields an empty string regardless of suffix.
func (e *Engine) TokenURI(tokenID uint64) (string, error) {
	if !e.ledger.Exists(tokenID) {
		return "", ErrNonexistentToken
	}
	if e.baseURI == "" {
		return "", nil
	}
	return e.baseURI + strconv.FormatUint(tokenID, 10) + e.tokenURISuffix, nil
}
