package lazy

import "errors"

var errNoLoader = errors.New("lazy: value has no loader")
