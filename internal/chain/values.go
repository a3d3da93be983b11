package chain

import (
	"context"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
)

func BigInt(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil big integer")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int:
		return big.NewInt(int64(x)), nil
	default:
		return nil, fmt.Errorf("unexpected numeric type %T", v)
	}
}

func Uint64(v interface{}) (uint64, error) {
	b, err := BigInt(v)
	if err != nil {
		return 0, err
	}
	if !b.IsUint64() {
		return 0, fmt.Errorf("value %s does not fit in uint64", b)
	}
	return b.Uint64(), nil
}

func Address(v interface{}) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *x, nil
	default:
		return common.Address{}, fmt.Errorf("unexpected address type %T", v)
	}
}

func Bool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected bool type %T", v)
	}
	return b, nil
}

// ValuesEqual compares decoded ABI values. Numbers compare by value whatever
// their Go type.
func ValuesEqual(a, b interface{}) bool {
	if x, err := BigInt(a); err == nil {
		y, err := BigInt(b)
		return err == nil && x.Cmp(y) == 0
	}
	if x, err := Address(a); err == nil {
		y, err := Address(b)
		return err == nil && x == y
	}
	return reflect.DeepEqual(a, b)
}

func singleOutput(c Contract, method string, out []interface{}) (interface{}, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("%s.%s returned %d values, expected 1", c.Name, method, len(out))
	}
	return out[0], nil
}

// CallBigInt calls a view method returning a single integer.
func CallBigInt(ctx context.Context, gw Gateway, c Contract, method string, args ...interface{}) (*big.Int, error) {
	out, err := gw.Call(ctx, c, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := singleOutput(c, method, out)
	if err != nil {
		return nil, err
	}
	return BigInt(v)
}

func CallUint64(ctx context.Context, gw Gateway, c Contract, method string, args ...interface{}) (uint64, error) {
	b, err := CallBigInt(ctx, gw, c, method, args...)
	if err != nil {
		return 0, err
	}
	if !b.IsUint64() {
		return 0, fmt.Errorf("%s.%s returned %s, which does not fit in uint64", c.Name, method, b)
	}
	return b.Uint64(), nil
}

func CallBool(ctx context.Context, gw Gateway, c Contract, method string, args ...interface{}) (bool, error) {
	out, err := gw.Call(ctx, c, method, args...)
	if err != nil {
		return false, err
	}
	v, err := singleOutput(c, method, out)
	if err != nil {
		return false, err
	}
	return Bool(v)
}

func CallAddress(ctx context.Context, gw Gateway, c Contract, method string, args ...interface{}) (common.Address, error) {
	out, err := gw.Call(ctx, c, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	v, err := singleOutput(c, method, out)
	if err != nil {
		return common.Address{}, err
	}
	return Address(v)
}
