package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"mit.edu/dsg/godb/common"
	"mit.edu/dsg/godb/relations"
	"mit.edu/dsg/godb/storage"
)

// Helper to create a standard tuple + schema for testing, bound into a
// fresh environment.
// Schema: [id(int), name(string), age(int), bio(string)]
// Values: [1, "alice", NULL, NULL]
func makeExprTestEnv() *Environment {
	schema := relations.NewSchema(
		relations.ColumnInfo{Name: "id", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "name", Qualifier: "t", Type: common.StringType},
		relations.ColumnInfo{Name: "age", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "bio", Qualifier: "t", Type: common.StringType},
	)
	tup := storage.FromValues(
		common.NewIntValue(1),          // 0: id
		common.NewStringValue("alice"), // 1: name
		common.NewNullInt(),            // 2: age (NULL)
		common.NewNullString(),         // 3: bio (NULL)
	)
	env := NewEnvironment()
	env.AddTuple(schema, tup)
	return env
}

func emptyEnv() *Environment {
	return NewEnvironment()
}

// TestBasicEvaluation checks Column references and Constants.
func TestBasicEvaluation(t *testing.T) {
	env := makeExprTestEnv()

	c1 := NewConstantValueExpression(common.NewIntValue(100))
	val := c1.Eval(env)
	assert.Equal(t, int64(100), val.IntValue())

	c2 := NewConstantValueExpression(common.NewStringValue("test"))
	val = c2.Eval(env)
	assert.Equal(t, "test", val.StringValue())

	colName := NewColumnValueExpression("t", "name", common.StringType)
	val = colName.Eval(env)
	assert.Equal(t, "alice", val.StringValue())

	colAge := NewColumnValueExpression("t", "age", common.IntType)
	val = colAge.Eval(env)
	assert.True(t, val.IsNull())
}

func TestColumnValueExpressionUnqualified(t *testing.T) {
	env := makeExprTestEnv()
	colName := NewColumnValueExpression("", "name", common.StringType)
	assert.Equal(t, "alice", colName.Eval(env).StringValue())
}

// TestComparisonLogic verifies standard comparisons and NULL handling.
func TestComparisonLogic(t *testing.T) {
	env := makeExprTestEnv()

	id := NewColumnValueExpression("t", "id", common.IntType)   // 1
	age := NewColumnValueExpression("t", "age", common.IntType) // NULL
	bio := NewColumnValueExpression("t", "bio", common.StringType)
	const1 := NewConstantValueExpression(common.NewIntValue(1))
	const5 := NewConstantValueExpression(common.NewIntValue(5))

	tests := []struct {
		name     string
		left     Expr
		right    Expr
		op       ComparisonType
		expected int // 1=True, 0=False, -1=Null
	}{
		{"1=1", id, const1, Equal, 1},
		{"1=5", id, const5, Equal, 0},
		{"1<>5", id, const5, NotEqual, 1},
		{"1<5", id, const5, LessThan, 1},
		{"1>5", id, const5, GreaterThan, 0},

		// NULL comparisons (Should always be NULL)
		{"1=NULL", id, age, Equal, -1},
		{"1!=NULL", id, age, NotEqual, -1},
		{"NULL=NULL", age, age, Equal, -1}, // SQL Standard: NULL = NULL is Unknown
		{"NULL!=NULL", age, age, NotEqual, -1},
		{"Str=NULL", bio, bio, Equal, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := NewComparisonExpression(tt.left, tt.right, tt.op)
			res := expr.Eval(env)
			if tt.expected == -1 {
				assert.True(t, res.IsNull(), "Expected NULL")
			} else {
				assert.False(t, res.IsNull(), "Expected Value")
				assert.Equal(t, int64(tt.expected), res.IntValue())
			}
		})
	}
}

// TestThreeValuedLogic verifies AND/OR/NOT with True, False, and Null.
func TestThreeValuedLogic(t *testing.T) {
	env := emptyEnv() // Using only constants

	// Helpers
	T := NewConstantValueExpression(common.NewIntValue(1))
	F := NewConstantValueExpression(common.NewIntValue(0))
	N := NewConstantValueExpression(common.NewNullInt())

	tests := []struct {
		name     string
		expr     Expr
		expected int // 1=True, 0=False, -1=Null
	}{
		// AND
		{"T AND T", NewBinaryLogicExpression(T, T, And), 1},
		{"T AND F", NewBinaryLogicExpression(T, F, And), 0},
		{"T AND N", NewBinaryLogicExpression(T, N, And), -1},
		{"F AND N", NewBinaryLogicExpression(F, N, And), 0}, // Short-circuit False
		{"N AND N", NewBinaryLogicExpression(N, N, And), -1},

		// OR
		{"T OR T", NewBinaryLogicExpression(T, T, Or), 1},
		{"T OR F", NewBinaryLogicExpression(T, F, Or), 1},
		{"T OR N", NewBinaryLogicExpression(T, N, Or), 1}, // Short-circuit True
		{"F OR N", NewBinaryLogicExpression(F, N, Or), -1},
		{"N OR N", NewBinaryLogicExpression(N, N, Or), -1},

		// NOT
		{"NOT T", NewNegationExpression(T), 0},
		{"NOT F", NewNegationExpression(F), 1},
		{"NOT N", NewNegationExpression(N), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.expr.Eval(env)
			if tt.expected == -1 {
				assert.True(t, res.IsNull())
			} else {
				assert.False(t, res.IsNull())
				assert.Equal(t, int64(tt.expected), res.IntValue())
			}
		})
	}
}

// TestNullChecks verifies IS NULL / IS NOT NULL.
func TestNullChecks(t *testing.T) {
	env := makeExprTestEnv()
	id := NewColumnValueExpression("t", "id", common.IntType)
	age := NewColumnValueExpression("t", "age", common.IntType)

	// 1 IS NULL -> False
	val := NewNullCheckExpression(id, IsNull).Eval(env)
	assert.Equal(t, int64(0), val.IntValue())
	// 1 IS NOT NULL -> True
	val = NewNullCheckExpression(id, IsNotNull).Eval(env)
	assert.Equal(t, int64(1), val.IntValue())

	// NULL IS NULL -> True
	val = NewNullCheckExpression(age, IsNull).Eval(env)
	assert.Equal(t, int64(1), val.IntValue())
	// NULL IS NOT NULL -> False
	val = NewNullCheckExpression(age, IsNotNull).Eval(env)
	assert.Equal(t, int64(0), val.IntValue())
}

// TestArithmetic verifies math operations and error handling.
func TestArithmetic(t *testing.T) {
	env := emptyEnv()

	val10 := NewConstantValueExpression(common.NewIntValue(10))
	val2 := NewConstantValueExpression(common.NewIntValue(2))
	val0 := NewConstantValueExpression(common.NewIntValue(0))
	valNull := NewConstantValueExpression(common.NewNullInt())

	tests := []struct {
		name     string
		left     Expr
		right    Expr
		op       ArithmeticType
		expected int64
		isNull   bool
	}{
		{"10 + 2", val10, val2, Add, 12, false},
		{"10 - 2", val10, val2, Sub, 8, false},
		{"10 * 2", val10, val2, Mult, 20, false},
		{"10 / 2", val10, val2, Div, 5, false},
		{"10 % 2", val10, val2, Mod, 0, false},

		// Null Propagation
		{"10 + NULL", val10, valNull, Add, 0, true},
		{"NULL * 2", valNull, val2, Mult, 0, true},

		// Division by Zero (Should return NULL)
		{"10 / 0", val10, val0, Div, 0, true},
		{"10 % 0", val10, val0, Mod, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := NewArithmeticExpression(tt.left, tt.right, tt.op)
			res := expr.Eval(env)
			if tt.isNull {
				assert.True(t, res.IsNull(), "Expected NULL result")
			} else {
				assert.Equal(t, tt.expected, res.IntValue())
			}
		})
	}
}

// TestStringOperations verifies Concat and LIKE.
func TestStringOperations(t *testing.T) {
	env := emptyEnv()

	hello := NewConstantValueExpression(common.NewStringValue("hello"))
	world := NewConstantValueExpression(common.NewStringValue("world"))
	nullStr := NewConstantValueExpression(common.NewNullString())

	// 1. Concatenation
	concat := NewStringConcatenation(hello, world)
	val := concat.Eval(env)
	assert.Equal(t, "helloworld", val.StringValue())

	concatNull := NewStringConcatenation(hello, nullStr)
	val = concatNull.Eval(env)
	assert.True(t, val.IsNull())

	// 2. LIKE Operator
	// "hello" LIKE "he%" -> True
	likePrefix := NewLikeExpression(hello, NewConstantValueExpression(common.NewStringValue("he%")))
	val = likePrefix.Eval(env)
	assert.Equal(t, int64(1), val.IntValue())

	// "hello" LIKE "%ll%" -> True
	likeMid := NewLikeExpression(hello, NewConstantValueExpression(common.NewStringValue("%ll%")))
	val = likeMid.Eval(env)
	assert.Equal(t, int64(1), val.IntValue())

	// "hello" LIKE "he__o" -> True (underscore wildcard)
	likeUnder := NewLikeExpression(hello, NewConstantValueExpression(common.NewStringValue("he__o")))
	val = likeUnder.Eval(env)
	assert.Equal(t, int64(1), val.IntValue())

	// "hello" LIKE "world" -> False
	likeFalse := NewLikeExpression(hello, world)
	val = likeFalse.Eval(env)
	assert.Equal(t, int64(0), val.IntValue())

	// Escape Char Test: "100%" LIKE "100\%"
	valPct := NewConstantValueExpression(common.NewStringValue("100%"))
	patPct := NewConstantValueExpression(common.NewStringValue("100\\%"))
	likeEsc := NewLikeExpression(valPct, patPct)
	val = likeEsc.Eval(env)
	assert.Equal(t, int64(1), val.IntValue())
}

// TestComplexExpressionTree constructs a deep tree of mixed operators and evaluates it.
//
// Scenario:
// Tuple: [id=10, val=50, status="active", region=NULL]
//
// Expression:
//
//	( (val * 2) > 90  AND  status = 'active' )
//	OR
//	( region IS NOT NULL )
//
// Evaluation:
// 1. (50 * 2) = 100 > 90 -> TRUE
// 2. status = 'active' -> TRUE
// 3. TRUE AND TRUE -> TRUE
// 4. region IS NOT NULL -> FALSE
// 5. TRUE OR FALSE -> TRUE
func TestComplexExpressionTree(t *testing.T) {
	schema := relations.NewSchema(
		relations.ColumnInfo{Name: "id", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "val", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "status", Qualifier: "t", Type: common.StringType},
		relations.ColumnInfo{Name: "region", Qualifier: "t", Type: common.StringType},
	)
	tup := storage.FromValues(
		common.NewIntValue(10),          // 0: id
		common.NewIntValue(50),          // 1: val
		common.NewStringValue("active"), // 2: status
		common.NewNullString(),          // 3: region (NULL)
	)
	env := NewEnvironment()
	env.AddTuple(schema, tup)

	// Column References
	valCol := NewColumnValueExpression("t", "val", common.IntType)
	statusCol := NewColumnValueExpression("t", "status", common.StringType)
	regionCol := NewColumnValueExpression("t", "region", common.StringType)

	// Constants
	const90 := NewConstantValueExpression(common.NewIntValue(90))
	constActive := NewConstantValueExpression(common.NewStringValue("active"))
	const2 := NewConstantValueExpression(common.NewIntValue(2))

	// 1. Subtree A: (val * 2) > 90
	multExpr := NewArithmeticExpression(valCol, const2, Mult)         // 50 * 2 = 100
	gtExpr := NewComparisonExpression(multExpr, const90, GreaterThan) // 100 > 90 -> True

	// 2. Subtree B: status = 'active'
	eqExpr := NewComparisonExpression(statusCol, constActive, Equal) // "active" == "active" -> True

	// 3. Subtree C: A AND B
	andExpr := NewBinaryLogicExpression(gtExpr, eqExpr, And) // True AND True -> True

	// 4. Subtree D: region IS NOT NULL
	nullCheckExpr := NewNullCheckExpression(regionCol, IsNotNull) // False

	// 5. Root: C OR D
	rootExpr := NewBinaryLogicExpression(andExpr, nullCheckExpr, Or) // True OR False -> True

	// Execute
	res := rootExpr.Eval(env)
	assert.False(t, res.IsNull(), "Result should not be NULL")
	assert.Equal(t, int64(1), res.IntValue(), "Expression tree failed to evaluate to TRUE")
}

// TestComplexExpressionTree_NullPropagate tests a case where NULLs bubble up.
//
// Expression:
// (val + 10) > 100 OR region LIKE 'US%'
//
// Tuple: [val=NULL, region=NULL]
//
// Evaluation:
// 1. NULL + 10 -> NULL
// 2. NULL > 100 -> NULL
// 3. NULL LIKE 'US%' -> NULL
// 4. NULL OR NULL -> NULL
func TestComplexExpressionTree_NullPropagate(t *testing.T) {
	schema := relations.NewSchema(
		relations.ColumnInfo{Name: "val", Qualifier: "t", Type: common.IntType},
		relations.ColumnInfo{Name: "region", Qualifier: "t", Type: common.StringType},
	)
	tup := storage.FromValues(
		common.NewNullInt(),
		common.NewNullString(),
	)
	env := NewEnvironment()
	env.AddTuple(schema, tup)

	valCol := NewColumnValueExpression("t", "val", common.IntType)
	regionCol := NewColumnValueExpression("t", "region", common.StringType)

	const10 := NewConstantValueExpression(common.NewIntValue(10))
	const100 := NewConstantValueExpression(common.NewIntValue(100))
	constUS := NewConstantValueExpression(common.NewStringValue("US%"))

	// Left: (val + 10) > 100
	addExpr := NewArithmeticExpression(valCol, const10, Add)
	gtExpr := NewComparisonExpression(addExpr, const100, GreaterThan)

	// Right: region LIKE 'US%'
	likeExpr := NewLikeExpression(regionCol, constUS)

	// Root: Left OR Right
	rootExpr := NewBinaryLogicExpression(gtExpr, likeExpr, Or)

	res := rootExpr.Eval(env)
	assert.True(t, res.IsNull(), "Expression should have evaluated to NULL")
}
